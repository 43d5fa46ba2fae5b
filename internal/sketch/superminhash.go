package sketch

import (
	"bufio"
	"bytes"
	"io"
	"math/bits"

	"github.com/zeebo/wyhash"
)

var smhMagic = [4]byte{'K', 'S', 'M', '1'}

// SuperMinHash is a b-bit SuperMinHash: a one-permutation bucket-min
// sketch like BBitMinHash, plus an optimal-densification pass at
// finalization that fills empty buckets by borrowing a pseudo-randomly
// chosen populated bucket's signature (perturbed by a bucket-indexed
// hash) instead of leaving them
// empty, the variance-reduction Ertl's SuperMinHash is named for in the
// GLOSSARY. This is a simplified stand-in for Ertl's full streaming
// algorithm (see DESIGN.md).
type SuperMinHashSketch struct {
	bucketBits int
	b          uint8
	mins       []uint64
	densified  bool
}

var _ Sketch = (*SuperMinHashSketch)(nil)

func NewSuperMinHash(params Params) *SuperMinHashSketch {
	b := params.B
	if b == 0 {
		b = 16
	}
	cap := bbitCapacity(params.Log2Size, b)
	mins := make([]uint64, cap)
	for i := range mins {
		mins[i] = emptyBucket
	}
	return &SuperMinHashSketch{bucketBits: bits.Len(uint(cap - 1)), b: b, mins: mins}
}

func (m *SuperMinHashSketch) Family() Family { return SuperMinHash }

func (m *SuperMinHashSketch) bucket(h uint64) int { return int(h >> (64 - m.bucketBits)) }

func (m *SuperMinHashSketch) AddHash(h uint64) {
	i := m.bucket(h)
	if h < m.mins[i] {
		m.mins[i] = h
	}
}

// densify fills any still-empty bucket by borrowing the signature of a
// pseudo-random populated bucket, perturbed so identical borrows across
// two sketches still compare meaningfully.
func (m *SuperMinHashSketch) densify() {
	if m.densified {
		return
	}
	n := len(m.mins)
	for i, v := range m.mins {
		if v != emptyBucket {
			continue
		}
		var buf [8]byte
		for step := uint64(1); step < uint64(n); step++ {
			be.PutUint64(buf[:], uint64(i)+step*0x9e3779b97f4a7c15)
			j := int(wyhash.Hash(buf[:], 0) % uint64(n))
			if m.mins[j] != emptyBucket {
				m.mins[i] = m.mins[j] ^ (step * 0xff51afd7ed558ccd)
				break
			}
		}
	}
	m.densified = true
}

func (m *SuperMinHashSketch) signature(i int) (uint64, bool) {
	v := m.mins[i]
	if v == emptyBucket {
		return 0, false
	}
	mask := uint64(1)<<m.b - 1
	return v & mask, true
}

func (m *SuperMinHashSketch) MergeInto(other Sketch) error {
	o, ok := other.(*SuperMinHashSketch)
	if !ok {
		return unsupported(m.Family(), "merge_into (family mismatch)")
	}
	if len(o.mins) != len(m.mins) {
		return unsupported(m.Family(), "merge_into (size mismatch)")
	}
	m.densified = false
	for i, v := range o.mins {
		if v != emptyBucket && v < m.mins[i] {
			m.mins[i] = v
		}
	}
	return nil
}

func (m *SuperMinHashSketch) CardinalityEstimate() float64 {
	return (&BBitMinHashSketch{bucketBits: m.bucketBits, b: m.b, mins: m.mins}).CardinalityEstimate()
}

func (m *SuperMinHashSketch) agreement(o *SuperMinHashSketch) (agree, both int) {
	m.densify()
	o.densify()
	n := len(m.mins)
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

func (m *SuperMinHashSketch) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*SuperMinHashSketch)
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

func (m *SuperMinHashSketch) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*SuperMinHashSketch)
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

func (m *SuperMinHashSketch) Containment(other Sketch) (float64, error) {
	o, ok := other.(*SuperMinHashSketch)
	if !ok {
		return 0, unsupported(m.Family(), "containment (family mismatch)")
	}
	ji, _ := m.Jaccard(o)
	a := m.CardinalityEstimate()
	b := o.CardinalityEstimate()
	if a == 0 || (1+ji) == 0 {
		return 0, nil
	}
	inter := ji * (a + b) / (1 + ji)
	c := inter / a
	if c < 0 {
		c = 0
	} else if c > 1 {
		c = 1
	}
	return c, nil
}

func (m *SuperMinHashSketch) Serialize(w io.Writer) error {
	m.densify()
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(smhMagic[:]); err != nil {
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

// DeserializeSuperMinHash reads back a sketch written by Serialize.
func DeserializeSuperMinHash(r io.Reader, params Params) (Sketch, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of magic: " + err.Error()}
	}
	if !bytes.Equal(magic[:], smhMagic[:]) {
		return nil, &CacheCorruptionError{Reason: "bad SuperMinHash magic"}
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
	return &SuperMinHashSketch{bucketBits: bits.Len(uint(n - 1)), b: b, mins: mins, densified: true}, nil
}

func (m *SuperMinHashSketch) Finalize() (FinalSketch, error) {
	m.densify()
	return m, nil
}
