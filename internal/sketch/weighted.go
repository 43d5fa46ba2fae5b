package sketch

import (
	"io"
	"math/bits"

	"github.com/zeebo/xxh3"
)

// DefaultWeightedCMLog2Rows and DefaultWeightedCMHashes are the weighted
// sketcher's Count-Min defaults named in spec.md §9's Open Questions
// (2^16 rows, 8 hashes), exposed here so callers can override them.
const (
	DefaultWeightedCMLog2Rows = 16
	DefaultWeightedCMHashes   = 8
)

// occurrenceCM is the weighted wrapper's private multiplicity oracle. It
// is deliberately independent of the pipeline's Count-Min pre-filter
// (C3): the two serve different purposes and must not share state.
type occurrenceCM struct {
	rows    [][]uint16
	log2Cap uint8
	nhashes int
}

func newOccurrenceCM(log2Rows uint8, nhashes int) *occurrenceCM {
	rows := make([][]uint16, nhashes)
	for i := range rows {
		rows[i] = make([]uint16, uint64(1)<<log2Rows)
	}
	return &occurrenceCM{rows: rows, log2Cap: log2Rows, nhashes: nhashes}
}

func (c *occurrenceCM) rowSeed(row int) uint64 { return uint64(row)*0x9e3779b97f4a7c15 + 1 }

func (c *occurrenceCM) index(row int, h uint64) uint64 {
	mixed := xxh3.HashSeed(uint64ToBytes(h), c.rowSeed(row))
	return mixed & (uint64(1)<<c.log2Cap - 1)
}

// bump increments every row's counter for h and returns the estimated
// (post-increment) occurrence count, i.e. the minimum across rows.
func (c *occurrenceCM) bump(h uint64) uint16 {
	min := ^uint16(0)
	idxs := make([]uint64, c.nhashes)
	for i := 0; i < c.nhashes; i++ {
		idxs[i] = c.index(i, h)
		if c.rows[i][idxs[i]] < min {
			min = c.rows[i][idxs[i]]
		}
	}
	if min == ^uint16(0) {
		min = 0
	}
	next := min + 1
	for i := 0; i < c.nhashes; i++ {
		if c.rows[i][idxs[i]] < next {
			c.rows[i][idxs[i]] = next
		}
	}
	return next
}

func uint64ToBytes(h uint64) []byte {
	var buf [8]byte
	be.PutUint64(buf[:], h)
	return buf[:]
}

// occurrenceBucket maps a raw occurrence count to a coarse bucket so that
// distinct multiplicities still collapse for very frequent k-mers
// (log2 bucketing keeps the derived-hash space bounded).
func occurrenceBucket(count uint16) uint64 {
	if count == 0 {
		return 0
	}
	return uint64(bits.Len16(count))
}

// Weighted composes a base Sketch with occurrenceCM to approximate
// weighted Jaccard over k-mer multiplicities (§4.3, §9): each distinct
// (hash, occurrence-bucket) pair is folded into the wrapped sketch as its
// own element.
type Weighted struct {
	base Sketch
	cm   *occurrenceCM
}

var _ Sketch = (*Weighted)(nil)

// NewWeighted wraps base with a fresh occurrence Count-Min using the given
// geometry (pass zero values to get the spec defaults).
func NewWeighted(base Sketch, log2Rows uint8, nhashes int) *Weighted {
	if log2Rows == 0 {
		log2Rows = DefaultWeightedCMLog2Rows
	}
	if nhashes == 0 {
		nhashes = DefaultWeightedCMHashes
	}
	return &Weighted{base: base, cm: newOccurrenceCM(log2Rows, nhashes)}
}

// Base returns the wrapped sketch, e.g. for family/suffix reporting.
func (w *Weighted) Base() Sketch { return w.base }

func (w *Weighted) Family() Family { return w.base.Family() }

func (w *Weighted) AddHash(h uint64) {
	count := w.cm.bump(h)
	bucket := occurrenceBucket(count)
	derived := mix64(h, bucket)
	w.base.AddHash(derived)
}

func mix64(a, b uint64) uint64 {
	x := a ^ (b * 0xff51afd7ed558ccd)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

func (w *Weighted) MergeInto(other Sketch) error {
	o, ok := other.(*Weighted)
	if !ok {
		return unsupported(w.Family(), "merge_into (family mismatch)")
	}
	// The occurrence CMs are not merged: multiplicity buckets already
	// baked into the base sketch's derived hashes are what unions.
	return w.base.MergeInto(o.base)
}

func (w *Weighted) CardinalityEstimate() float64 { return w.base.CardinalityEstimate() }

func (w *Weighted) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*Weighted)
	if !ok {
		return 0, unsupported(w.Family(), "jaccard (family mismatch)")
	}
	return w.base.Jaccard(o.base)
}

func (w *Weighted) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*Weighted)
	if !ok {
		return 0, unsupported(w.Family(), "union_size (family mismatch)")
	}
	return w.base.UnionSize(o.base)
}

func (w *Weighted) Containment(other Sketch) (float64, error) {
	o, ok := other.(*Weighted)
	if !ok {
		return 0, unsupported(w.Family(), "containment (family mismatch)")
	}
	return w.base.Containment(o.base)
}

func (w *Weighted) Serialize(sink io.Writer) error { return w.base.Serialize(sink) }

func (w *Weighted) Finalize() (FinalSketch, error) {
	fb, err := w.base.Finalize()
	if err != nil {
		return nil, err
	}
	w.base = fb
	return w, nil
}
