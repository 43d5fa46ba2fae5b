package sketch

import (
	"bufio"
	"bytes"
	"container/heap"
	"io"
	"math"
	"sort"

	"github.com/twotwotwo/sorts"
)

var rmhMagic = [4]byte{'K', 'R', 'M', '1'}
var crmhMagic = [4]byte{'K', 'C', 'M', '1'}

// maxHeap keeps the k smallest hashes seen so far by evicting the current
// maximum when a smaller candidate arrives; classic bottom-k MinHash.
type maxHeap []uint64

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i] > h[j] } // max-heap
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// RangeMinHash is the bottom-k MinHash family: it retains the k smallest
// distinct hashes of the stream, k = 2^(p-3) per §3. Style follows
// will-rowe/baby-groot's KMVsketch (a fixed-size slot array kept minimal),
// generalized here to a proper max-heap so eviction is O(log k) instead of
// O(k) per insert.
type RangeMinHashSketch struct {
	capacity int
	seen     map[uint64]struct{}
	heap     maxHeap
	sorted   []uint64 // populated only after Finalize
	final    bool
}

var _ Sketch = (*RangeMinHashSketch)(nil)

// NewRangeMinHash builds an empty bottom-k sketch with 2^(p-3) minima.
func NewRangeMinHash(params Params) *RangeMinHashSketch {
	cap := 1 << (int(params.Log2Size) - 3)
	if cap < 1 {
		cap = 1
	}
	return &RangeMinHashSketch{
		capacity: cap,
		seen:     make(map[uint64]struct{}, cap*2),
		heap:     make(maxHeap, 0, cap),
	}
}

func (m *RangeMinHashSketch) Family() Family { return RangeMinHash }

func (m *RangeMinHashSketch) AddHash(h uint64) {
	if _, ok := m.seen[h]; ok {
		return
	}
	if len(m.heap) < m.capacity {
		m.seen[h] = struct{}{}
		heap.Push(&m.heap, h)
		return
	}
	if h < m.heap[0] {
		delete(m.seen, m.heap[0])
		m.seen[h] = struct{}{}
		heap.Pop(&m.heap)
		heap.Push(&m.heap, h)
	}
}

func (m *RangeMinHashSketch) minima() []uint64 {
	if m.final {
		return m.sorted
	}
	out := make([]uint64, len(m.heap))
	copy(out, m.heap)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *RangeMinHashSketch) MergeInto(other Sketch) error {
	o, ok := other.(*RangeMinHashSketch)
	if !ok {
		return unsupported(m.Family(), "merge_into (family mismatch)")
	}
	for _, h := range o.minima() {
		m.AddHash(h)
	}
	return nil
}

// CardinalityEstimate uses the standard bottom-k formula: if the sketch
// never filled, the count is exact; otherwise n̂ = (k-1) * 2^64 / v_k
// where v_k is the largest retained (k-th smallest overall) hash.
func (m *RangeMinHashSketch) CardinalityEstimate() float64 {
	n := len(m.heap)
	if m.final {
		n = len(m.sorted)
	}
	if n < m.capacity {
		return float64(n)
	}
	vk := m.kthMin()
	if vk == 0 {
		return 0
	}
	return float64(m.capacity-1) * math.MaxUint64 / float64(vk)
}

func (m *RangeMinHashSketch) kthMin() uint64 {
	mins := m.minima()
	if len(mins) == 0 {
		return 0
	}
	return mins[len(mins)-1]
}

// bottomKJaccard merges two sorted minima slices and estimates Jaccard by
// taking the bottom-k of the union and measuring the fraction present in
// both inputs (the standard bottom-k MinHash estimator).
func bottomKJaccard(a, b []uint64, k int) float64 {
	setA := make(map[uint64]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[uint64]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}
	merged := make([]uint64, 0, len(a)+len(b))
	seen := make(map[uint64]struct{}, len(a)+len(b))
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			merged = append(merged, v)
		}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			merged = append(merged, v)
		}
	}
	sorts.Quicksort(uint64Slice(merged))
	if len(merged) > k {
		merged = merged[:k]
	}
	if len(merged) == 0 {
		return 0
	}
	both := 0
	for _, v := range merged {
		_, inA := setA[v]
		_, inB := setB[v]
		if inA && inB {
			both++
		}
	}
	return float64(both) / float64(len(merged))
}

type uint64Slice []uint64

func (s uint64Slice) Len() int           { return len(s) }
func (s uint64Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s uint64Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s uint64Slice) Key(i int) uint64   { return s[i] }

func (m *RangeMinHashSketch) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*RangeMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "jaccard (family mismatch)")
	}
	k := m.capacity
	if o.capacity < k {
		k = o.capacity
	}
	return bottomKJaccard(m.minima(), o.minima(), k), nil
}

func (m *RangeMinHashSketch) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*RangeMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "union_size (family mismatch)")
	}
	ji, _ := m.Jaccard(o)
	a, b := m.CardinalityEstimate(), o.CardinalityEstimate()
	if ji == 0 {
		return a + b, nil
	}
	return (a + b) / (1 + ji), nil
}

func (m *RangeMinHashSketch) Containment(other Sketch) (float64, error) {
	o, ok := other.(*RangeMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "containment (family mismatch)")
	}
	// Containment via the receiver's minima tested against other's
	// retained set: c(A,B) = |{h in bottom-k(A) : h <=
	// max(bottom-k(B)) and h in B}| / |{h in bottom-k(A): h <= max(bottom-k(B))}|.
	aMin := m.minima()
	bSet := make(map[uint64]struct{}, len(o.minima()))
	bMax := uint64(math.MaxUint64)
	bMins := o.minima()
	if len(bMins) > 0 {
		bMax = bMins[len(bMins)-1]
	}
	for _, v := range bMins {
		bSet[v] = struct{}{}
	}
	var denom, num int
	for _, v := range aMin {
		if v > bMax {
			break
		}
		denom++
		if _, ok := bSet[v]; ok {
			num++
		}
	}
	if denom == 0 {
		return 0, nil
	}
	return float64(num) / float64(denom), nil
}

func (m *RangeMinHashSketch) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(rmhMagic[:]); err != nil {
		return err
	}
	mins := m.minima()
	hdr := make([]byte, 16)
	be.PutUint64(hdr[0:8], uint64(m.capacity))
	be.PutUint64(hdr[8:16], uint64(len(mins)))
	if _, err := bw.Write(hdr); err != nil {
		return err
	}
	for _, v := range mins {
		var buf [8]byte
		be.PutUint64(buf[:], v)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DeserializeRangeMinHash reads back a sketch written by Serialize.
func DeserializeRangeMinHash(r io.Reader, params Params) (Sketch, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of magic: " + err.Error()}
	}
	if !bytes.Equal(magic[:], rmhMagic[:]) {
		return nil, &CacheCorruptionError{Reason: "bad RangeMinHash magic"}
	}
	hdr := make([]byte, 16)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of header: " + err.Error()}
	}
	cap := int(be.Uint64(hdr[0:8]))
	n := int(be.Uint64(hdr[8:16]))
	mins := make([]uint64, n)
	for i := 0; i < n; i++ {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, &CacheCorruptionError{Reason: "short read of minima: " + err.Error()}
		}
		mins[i] = be.Uint64(buf[:])
	}
	m := &RangeMinHashSketch{capacity: cap, sorted: mins, final: true, seen: map[uint64]struct{}{}}
	return m, nil
}

// Finalize sorts the retained minima ascending, the terminal form named in
// §3 ("bottom-k MinHash → sorted minima").
func (m *RangeMinHashSketch) Finalize() (FinalSketch, error) {
	m.sorted = m.minima()
	m.final = true
	m.heap = nil
	m.seen = nil
	return m, nil
}
