package sketch

import (
	"bufio"
	"bytes"
	"io"
	"sort"
)

var khsMagic = [4]byte{'K', 'H', 'S', '1'}

// FullHashSet retains every distinct hash exactly: the "exact" family,
// used as a ground truth for small inputs or unions and to check the
// other families' approximations in tests.
type FullHashSetSketch struct {
	set map[uint64]struct{}
}

var _ Sketch = (*FullHashSetSketch)(nil)

func NewFullHashSet(params Params) *FullHashSetSketch {
	return &FullHashSetSketch{set: make(map[uint64]struct{}, 1<<16)}
}

func (s *FullHashSetSketch) Family() Family { return FullHashSet }

func (s *FullHashSetSketch) AddHash(h uint64) { s.set[h] = struct{}{} }

func (s *FullHashSetSketch) MergeInto(other Sketch) error {
	o, ok := other.(*FullHashSetSketch)
	if !ok {
		return unsupported(s.Family(), "merge_into (family mismatch)")
	}
	for h := range o.set {
		s.set[h] = struct{}{}
	}
	return nil
}

func (s *FullHashSetSketch) CardinalityEstimate() float64 { return float64(len(s.set)) }

func (s *FullHashSetSketch) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*FullHashSetSketch)
	if !ok {
		return 0, unsupported(s.Family(), "jaccard (family mismatch)")
	}
	inter, union := s.intersectUnion(o)
	if union == 0 {
		return 0, nil
	}
	return float64(inter) / float64(union), nil
}

func (s *FullHashSetSketch) intersectUnion(o *FullHashSetSketch) (inter, union int) {
	small, big := s.set, o.set
	if len(big) < len(small) {
		small, big = big, small
	}
	for h := range small {
		if _, ok := big[h]; ok {
			inter++
		}
	}
	union = len(s.set) + len(o.set) - inter
	return
}

func (s *FullHashSetSketch) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*FullHashSetSketch)
	if !ok {
		return 0, unsupported(s.Family(), "union_size (family mismatch)")
	}
	_, union := s.intersectUnion(o)
	return float64(union), nil
}

func (s *FullHashSetSketch) Containment(other Sketch) (float64, error) {
	o, ok := other.(*FullHashSetSketch)
	if !ok {
		return 0, unsupported(s.Family(), "containment (family mismatch)")
	}
	if len(s.set) == 0 {
		return 0, nil
	}
	inter, _ := s.intersectUnion(o)
	return float64(inter) / float64(len(s.set)), nil
}

func (s *FullHashSetSketch) sorted() []uint64 {
	out := make([]uint64, 0, len(s.set))
	for h := range s.set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *FullHashSetSketch) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(khsMagic[:]); err != nil {
		return err
	}
	vals := s.sorted()
	hdr := make([]byte, 8)
	be.PutUint64(hdr, uint64(len(vals)))
	if _, err := bw.Write(hdr); err != nil {
		return err
	}
	for _, v := range vals {
		var buf [8]byte
		be.PutUint64(buf[:], v)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DeserializeFullHashSet reads back a sketch written by Serialize.
func DeserializeFullHashSet(r io.Reader, params Params) (Sketch, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of magic: " + err.Error()}
	}
	if !bytes.Equal(magic[:], khsMagic[:]) {
		return nil, &CacheCorruptionError{Reason: "bad FullHashSet magic"}
	}
	hdr := make([]byte, 8)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of header: " + err.Error()}
	}
	n := int(be.Uint64(hdr))
	set := make(map[uint64]struct{}, n)
	for i := 0; i < n; i++ {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, &CacheCorruptionError{Reason: "short read of elements: " + err.Error()}
		}
		set[be.Uint64(buf[:])] = struct{}{}
	}
	return &FullHashSetSketch{set: set}, nil
}

func (s *FullHashSetSketch) Finalize() (FinalSketch, error) { return s, nil }
