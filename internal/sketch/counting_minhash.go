package sketch

import (
	"bufio"
	"bytes"
	"container/heap"
	"io"
)

// CountingRangeMinHash is RangeMinHash augmented with an occurrence count
// per retained minimum, recording multiplicity information for the
// k-mers that survive the bottom-k cut. The weighted wrapper does not
// read these counts; it keeps its own Count-Min (weighted.go).
type CountingRangeMinHashSketch struct {
	capacity int
	seen     map[uint64]int
	heap     maxHeap
	sorted   []uint64
	final    bool
}

var _ Sketch = (*CountingRangeMinHashSketch)(nil)

func NewCountingRangeMinHash(params Params) *CountingRangeMinHashSketch {
	cap := 1 << (int(params.Log2Size) - 3)
	if cap < 1 {
		cap = 1
	}
	return &CountingRangeMinHashSketch{
		capacity: cap,
		seen:     make(map[uint64]int, cap*2),
		heap:     make(maxHeap, 0, cap),
	}
}

func (m *CountingRangeMinHashSketch) Family() Family { return CountingRangeMinHash }

func (m *CountingRangeMinHashSketch) AddHash(h uint64) {
	if c, ok := m.seen[h]; ok {
		m.seen[h] = c + 1
		return
	}
	if len(m.heap) < m.capacity {
		m.seen[h] = 1
		heap.Push(&m.heap, h)
		return
	}
	if h < m.heap[0] {
		delete(m.seen, m.heap[0])
		m.seen[h] = 1
		heap.Pop(&m.heap)
		heap.Push(&m.heap, h)
	}
}

func (m *CountingRangeMinHashSketch) minima() []uint64 {
	if m.final {
		return m.sorted
	}
	rmh := &RangeMinHashSketch{capacity: m.capacity, heap: m.heap}
	return rmh.minima()
}

// Count returns the retained occurrence count for a minimum, or 0 if the
// hash is not currently retained.
func (m *CountingRangeMinHashSketch) Count(h uint64) int { return m.seen[h] }

func (m *CountingRangeMinHashSketch) MergeInto(other Sketch) error {
	o, ok := other.(*CountingRangeMinHashSketch)
	if !ok {
		return unsupported(m.Family(), "merge_into (family mismatch)")
	}
	for _, h := range o.minima() {
		for i := 0; i < o.Count(h); i++ {
			m.AddHash(h)
		}
	}
	return nil
}

func (m *CountingRangeMinHashSketch) CardinalityEstimate() float64 {
	rmh := &RangeMinHashSketch{capacity: m.capacity, heap: m.heap, sorted: m.sorted, final: m.final}
	return rmh.CardinalityEstimate()
}

func (m *CountingRangeMinHashSketch) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*CountingRangeMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "jaccard (family mismatch)")
	}
	k := m.capacity
	if o.capacity < k {
		k = o.capacity
	}
	return bottomKJaccard(m.minima(), o.minima(), k), nil
}

func (m *CountingRangeMinHashSketch) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*CountingRangeMinHashSketch)
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

func (m *CountingRangeMinHashSketch) Containment(other Sketch) (float64, error) {
	o, ok := other.(*CountingRangeMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "containment (family mismatch)")
	}
	a := &RangeMinHashSketch{capacity: m.capacity, heap: m.heap, sorted: m.sorted, final: m.final}
	b := &RangeMinHashSketch{capacity: o.capacity, heap: o.heap, sorted: o.sorted, final: o.final}
	return a.Containment(b)
}

var crmhCountsMagic = [4]byte{'K', 'C', 'C', '1'}

func (m *CountingRangeMinHashSketch) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(crmhMagic[:]); err != nil {
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
		var buf [16]byte
		be.PutUint64(buf[0:8], v)
		be.PutUint64(buf[8:16], uint64(m.seen[v]))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DeserializeCountingRangeMinHash reads back a sketch written by Serialize.
func DeserializeCountingRangeMinHash(r io.Reader, params Params) (Sketch, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of magic: " + err.Error()}
	}
	if !bytes.Equal(magic[:], crmhMagic[:]) {
		return nil, &CacheCorruptionError{Reason: "bad CountingRangeMinHash magic"}
	}
	hdr := make([]byte, 16)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of header: " + err.Error()}
	}
	cap := int(be.Uint64(hdr[0:8]))
	n := int(be.Uint64(hdr[8:16]))
	mins := make([]uint64, n)
	seen := make(map[uint64]int, n)
	for i := 0; i < n; i++ {
		var buf [16]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, &CacheCorruptionError{Reason: "short read of minima: " + err.Error()}
		}
		v := be.Uint64(buf[0:8])
		mins[i] = v
		seen[v] = int(be.Uint64(buf[8:16]))
	}
	return &CountingRangeMinHashSketch{capacity: cap, sorted: mins, seen: seen, final: true}, nil
}

func (m *CountingRangeMinHashSketch) Finalize() (FinalSketch, error) {
	m.sorted = m.minima()
	m.final = true
	m.heap = nil
	return m, nil
}
