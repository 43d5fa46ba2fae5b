package sketch

import (
	"bufio"
	"bytes"
	"io"
	"math/bits"
)

// CountingBBitMinHash augments BBitMinHash with an occurrence counter per
// bucket, mirroring how CountingRangeMinHash augments RangeMinHash.
type CountingBBitMinHashSketch struct {
	bucketBits int
	b          uint8
	mins       []uint64
	counts     []uint64
}

var _ Sketch = (*CountingBBitMinHashSketch)(nil)

func NewCountingBBitMinHash(params Params) *CountingBBitMinHashSketch {
	b := params.B
	if b == 0 {
		b = 16
	}
	cap := bbitCapacity(params.Log2Size, b)
	mins := make([]uint64, cap)
	for i := range mins {
		mins[i] = emptyBucket
	}
	return &CountingBBitMinHashSketch{bucketBits: bits.Len(uint(cap - 1)), b: b, mins: mins, counts: make([]uint64, cap)}
}

func (m *CountingBBitMinHashSketch) Family() Family { return CountingBBitMinHash }

func (m *CountingBBitMinHashSketch) bucket(h uint64) int { return int(h >> (64 - m.bucketBits)) }

func (m *CountingBBitMinHashSketch) AddHash(h uint64) {
	i := m.bucket(h)
	if h < m.mins[i] {
		m.mins[i] = h
		m.counts[i] = 1
	} else if h == m.mins[i] {
		m.counts[i]++
	}
}

func (m *CountingBBitMinHashSketch) asBBit() *BBitMinHashSketch {
	return &BBitMinHashSketch{bucketBits: m.bucketBits, b: m.b, mins: m.mins}
}

func (m *CountingBBitMinHashSketch) MergeInto(other Sketch) error {
	o, ok := other.(*CountingBBitMinHashSketch)
	if !ok {
		return unsupported(m.Family(), "merge_into (family mismatch)")
	}
	if len(o.mins) != len(m.mins) {
		return unsupported(m.Family(), "merge_into (size mismatch)")
	}
	for i, v := range o.mins {
		switch {
		case v < m.mins[i]:
			m.mins[i] = v
			m.counts[i] = o.counts[i]
		case v == m.mins[i]:
			m.counts[i] += o.counts[i]
		}
	}
	return nil
}

func (m *CountingBBitMinHashSketch) CardinalityEstimate() float64 { return m.asBBit().CardinalityEstimate() }

func (m *CountingBBitMinHashSketch) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*CountingBBitMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "jaccard (family mismatch)")
	}
	return m.asBBit().Jaccard(o.asBBit())
}

func (m *CountingBBitMinHashSketch) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*CountingBBitMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "union_size (family mismatch)")
	}
	return m.asBBit().UnionSize(o.asBBit())
}

func (m *CountingBBitMinHashSketch) Containment(other Sketch) (float64, error) {
	o, ok := other.(*CountingBBitMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "containment (family mismatch)")
	}
	return m.asBBit().Containment(o.asBBit())
}

func (m *CountingBBitMinHashSketch) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(cbbitMagic[:]); err != nil {
		return err
	}
	hdr := make([]byte, 9)
	be.PutUint64(hdr[0:8], uint64(len(m.mins)))
	hdr[8] = m.b
	if _, err := bw.Write(hdr); err != nil {
		return err
	}
	for i, v := range m.mins {
		var buf [16]byte
		be.PutUint64(buf[0:8], v)
		be.PutUint64(buf[8:16], m.counts[i])
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DeserializeCountingBBitMinHash reads back a sketch written by Serialize.
func DeserializeCountingBBitMinHash(r io.Reader, params Params) (Sketch, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of magic: " + err.Error()}
	}
	if !bytes.Equal(magic[:], cbbitMagic[:]) {
		return nil, &CacheCorruptionError{Reason: "bad CountingBBitMinHash magic"}
	}
	hdr := make([]byte, 9)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of header: " + err.Error()}
	}
	n := int(be.Uint64(hdr[0:8]))
	b := hdr[8]
	mins := make([]uint64, n)
	counts := make([]uint64, n)
	for i := 0; i < n; i++ {
		var buf [16]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, &CacheCorruptionError{Reason: "short read of buckets: " + err.Error()}
		}
		mins[i] = be.Uint64(buf[0:8])
		counts[i] = be.Uint64(buf[8:16])
	}
	return &CountingBBitMinHashSketch{bucketBits: bits.Len(uint(n - 1)), b: b, mins: mins, counts: counts}, nil
}

func (m *CountingBBitMinHashSketch) Finalize() (FinalSketch, error) { return m, nil }
