package sketch

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"math/bits"
)

var bbitMagic = [4]byte{'K', 'B', 'M', '1'}
var cbbitMagic = [4]byte{'K', 'C', 'B', '1'}

const emptyBucket = ^uint64(0)

// bbitCapacity implements §3's "b-bit MinHash: 2^(p−log2(b/8)) signatures".
func bbitCapacity(p, b uint8) int {
	shift := int(p) - int(math.Log2(float64(b)/8))
	if shift < 1 {
		shift = 1
	}
	return 1 << shift
}

// BBitMinHash buckets k-mers by the top bits of their hash (as HLL does
// for register selection) and retains, per bucket, only the low b bits of
// the smallest hash observed — a one-permutation-hashing style b-bit
// MinHash, chosen because it composes with the same "select a bucket from
// the top bits" idiom already used by the HLL family in this package.
type BBitMinHashSketch struct {
	bucketBits int
	b          uint8
	mins       []uint64 // full min hash per bucket, emptyBucket if unset
}

var _ Sketch = (*BBitMinHashSketch)(nil)

func NewBBitMinHash(params Params) *BBitMinHashSketch {
	b := params.B
	if b == 0 {
		b = 16
	}
	cap := bbitCapacity(params.Log2Size, b)
	mins := make([]uint64, cap)
	for i := range mins {
		mins[i] = emptyBucket
	}
	return &BBitMinHashSketch{bucketBits: bits.Len(uint(cap - 1)), b: b, mins: mins}
}

func (m *BBitMinHashSketch) Family() Family { return BBitMinHash }

func (m *BBitMinHashSketch) bucket(h uint64) int {
	return int(h >> (64 - m.bucketBits))
}

func (m *BBitMinHashSketch) AddHash(h uint64) {
	i := m.bucket(h)
	if h < m.mins[i] {
		m.mins[i] = h
	}
}

func (m *BBitMinHashSketch) signature(i int) (uint64, bool) {
	v := m.mins[i]
	if v == emptyBucket {
		return 0, false
	}
	mask := uint64(1)<<m.b - 1
	return v & mask, true
}

func (m *BBitMinHashSketch) MergeInto(other Sketch) error {
	o, ok := other.(*BBitMinHashSketch)
	if !ok {
		return unsupported(m.Family(), "merge_into (family mismatch)")
	}
	if len(o.mins) != len(m.mins) {
		return unsupported(m.Family(), "merge_into (size mismatch)")
	}
	for i, v := range o.mins {
		if v < m.mins[i] {
			m.mins[i] = v
		}
	}
	return nil
}

func (m *BBitMinHashSketch) CardinalityEstimate() float64 {
	cap := float64(len(m.mins))
	empty := 0
	for _, v := range m.mins {
		if v == emptyBucket {
			empty++
		}
	}
	if empty == 0 {
		// saturated: with no empty bucket the linear-counting formula
		// below is undefined, so report the bucket count.
		return cap
	}
	return cap * math.Log(cap/float64(empty))
}

func chanceMatch(b uint8) float64 {
	return 1.0 / float64(uint64(1)<<b)
}

func (m *BBitMinHashSketch) agreement(o *BBitMinHashSketch) (agree, both int) {
	n := len(m.mins)
	if len(o.mins) < n {
		n = len(o.mins)
	}
	for i := 0; i < n; i++ {
		sa, oka := m.signature(i)
		sb, okb := o.signature(i)
		if !oka || !okb {
			continue
		}
		both++
		if sa == sb {
			agree++
		}
	}
	return
}

func (m *BBitMinHashSketch) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*BBitMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "jaccard (family mismatch)")
	}
	agree, both := m.agreement(o)
	if both == 0 {
		return 0, nil
	}
	c := chanceMatch(m.b)
	raw := float64(agree)/float64(both) - c
	ji := raw / (1 - c)
	if ji < 0 {
		ji = 0
	} else if ji > 1 {
		ji = 1
	}
	return ji, nil
}

func (m *BBitMinHashSketch) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*BBitMinHashSketch)
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

func (m *BBitMinHashSketch) Containment(other Sketch) (float64, error) {
	o, ok := other.(*BBitMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "containment (family mismatch)")
	}
	agree, both := m.agreement(o)
	if both == 0 {
		return 0, nil
	}
	c := chanceMatch(m.b)
	raw := float64(agree)/float64(both) - c
	ji := raw / (1 - c)
	if ji < 0 {
		ji = 0
	}
	// Containment C(A,B) from Jaccard and the two cardinalities:
	// J = |A∩B| / (|A|+|B|-|A∩B|)  =>  |A∩B| = J*(|A|+|B|)/(1+J)
	a := m.CardinalityEstimate()
	b := o.CardinalityEstimate()
	inter := ji * (a + b) / (1 + ji)
	if a == 0 {
		return 0, nil
	}
	c2 := inter / a
	if c2 < 0 {
		c2 = 0
	} else if c2 > 1 {
		c2 = 1
	}
	return c2, nil
}

func (m *BBitMinHashSketch) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(bbitMagic[:]); err != nil {
		return err
	}
	hdr := make([]byte, 9)
	be.PutUint64(hdr[0:8], uint64(len(m.mins)))
	hdr[8] = m.b
	if _, err := bw.Write(hdr); err != nil {
		return err
	}
	for _, v := range m.mins {
		var buf [8]byte
		be.PutUint64(buf[:], v)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DeserializeBBitMinHash reads back a sketch written by Serialize.
func DeserializeBBitMinHash(r io.Reader, params Params) (Sketch, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of magic: " + err.Error()}
	}
	if !bytes.Equal(magic[:], bbitMagic[:]) {
		return nil, &CacheCorruptionError{Reason: "bad BBitMinHash magic"}
	}
	hdr := make([]byte, 9)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of header: " + err.Error()}
	}
	n := int(be.Uint64(hdr[0:8]))
	b := hdr[8]
	mins := make([]uint64, n)
	for i := 0; i < n; i++ {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, &CacheCorruptionError{Reason: "short read of buckets: " + err.Error()}
		}
		mins[i] = be.Uint64(buf[:])
	}
	return &BBitMinHashSketch{bucketBits: bits.Len(uint(n - 1)), b: b, mins: mins}, nil
}

func (m *BBitMinHashSketch) Finalize() (FinalSketch, error) { return m, nil }
