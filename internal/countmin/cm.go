// Package countmin implements the per-worker Count-Min frequency oracle
// (C3): a k-mer admission pre-filter gating how many times a distinct
// hash must be observed before it is added to the sketch under
// construction. Grounded on internal/sketch/bloom.go's baseHashes/
// locations double-hashing scheme (deriving several row indices from one
// 64-bit hash via a fixed-increment scan rather than hashing per row),
// reused here instead of the weighted wrapper's xxh3-seeded-per-row
// approach because this filter runs on the pipeline's hot path once per
// input k-mer and double hashing is cheaper.
package countmin

import (
	"encoding/binary"

	"github.com/cespare/xxhash"

	"github.com/kmers-io/ksketch/internal/xdiv"
)

// Sketch is a fixed-geometry Count-Min sketch: rows independent hash
// rows of width counters each.
type Sketch struct {
	rows    [][]uint16
	width   uint64
	divisor xdiv.Divisor
	seed    uint64
}

// New builds a Count-Min sketch with the given row/width geometry and
// mixing seed. The caller derives the seed with Seed, which hashes
// (thread_index XOR run_seed) with xxhash rather than multiplying it by
// 1337, so that concurrent pipeline workers use independent,
// deterministic filter geometries.
func New(rows int, width uint64, seed uint64) *Sketch {
	r := make([][]uint16, rows)
	for i := range r {
		r[i] = make([]uint16, width)
	}
	return &Sketch{rows: r, width: width, divisor: xdiv.New(width), seed: seed}
}

func (s *Sketch) baseHashes(h uint64) (uint64, uint64) {
	mixed := h ^ s.seed
	hi := mixed >> 32
	lo := mixed & 0xffffffff
	return hi, lo
}

func (s *Sketch) index(row int, hi, lo uint64) uint64 {
	combined := hi + uint64(row)*lo
	return s.divisor.Mod(combined)
}

// Bump increments every row's counter for h and returns the estimated
// (post-increment) occurrence count: the minimum across rows, which is
// the standard Count-Min point estimator.
func (s *Sketch) Bump(h uint64) uint16 {
	hi, lo := s.baseHashes(h)
	min := ^uint16(0)
	idxs := make([]uint64, len(s.rows))
	for i, row := range s.rows {
		idx := s.index(i, hi, lo)
		idxs[i] = idx
		if row[idx] < min {
			min = row[idx]
		}
	}
	if min == ^uint16(0) {
		min = 0
	}
	next := min + 1
	for i, row := range s.rows {
		if row[idxs[i]] < next {
			row[idxs[i]] = next
		}
	}
	return next
}

// Estimate returns the current occurrence estimate for h without
// mutating any counter.
func (s *Sketch) Estimate(h uint64) uint16 {
	hi, lo := s.baseHashes(h)
	min := ^uint16(0)
	for i, row := range s.rows {
		idx := s.index(i, hi, lo)
		if row[idx] < min {
			min = row[idx]
		}
	}
	if min == ^uint16(0) {
		return 0
	}
	return min
}

// Admit reports whether h has now been observed at least minCount times,
// bumping its counters as a side effect. This is the pipeline's actual
// admission check (§4.3): a k-mer is added to the sketch under
// construction only once Admit returns true for it.
func (s *Sketch) Admit(h uint64, minCount uint16) bool {
	return s.Bump(h) >= minCount
}

// Clear zeroes every counter, letting a worker reuse the same allocation
// across input files instead of reallocating per file.
func (s *Sketch) Clear() {
	for _, row := range s.rows {
		for i := range row {
			row[i] = 0
		}
	}
}

// Seed derives the per-worker Count-Min seed named in spec.md §4.3,
// running (thread_index XOR run_seed) through xxhash rather than the
// plain "* 1337" multiply so that nearby thread indices (0, 1, 2, ...)
// don't land on seeds that are themselves nearby multiples of each
// other, which would otherwise correlate the double-hashing schemes of
// adjacent workers.
func Seed(threadIndex int, runSeed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(threadIndex)^runSeed)
	return xxhash.Sum64(buf[:])
}
