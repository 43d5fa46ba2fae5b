// Package sketch implements the Sketch capability (C1): a uniform contract
// that every probabilistic-cardinality family (HyperLogLog, Bloom filter,
// bottom-k MinHash, counting MinHash, b-bit MinHash, b-bit SuperMinHash,
// full hash set) satisfies, plus the multiplicity-aware weighted wrapper.
//
// Families are grounded on the register/bucket arithmetic shown in
// axiomhq/hyperloglog (HLL), the will-rowe/baby-groot minhash/kmv sketches
// (bottom-k MinHash) and the assorted Bloom/count-min examples in the
// retrieval pack; see DESIGN.md for the per-family ledger.
package sketch

import (
	"fmt"
	"io"
)

// Family is the stable tag identifying a sketch implementation. It drives
// file-suffix selection (C4) and capacity conversion from log2_size.
type Family uint8

// Supported families, matching spec.md §6.5's sketch_family enum.
const (
	HLL Family = iota
	BloomFilter
	RangeMinHash
	CountingRangeMinHash
	FullHashSet
	BBitMinHash
	SuperMinHash
	CountingBBitMinHash
)

func (f Family) String() string {
	switch f {
	case HLL:
		return "HLL"
	case BloomFilter:
		return "Bloom"
	case RangeMinHash:
		return "RangeMinHash"
	case CountingRangeMinHash:
		return "CountingRangeMinHash"
	case FullHashSet:
		return "FullHashSet"
	case BBitMinHash:
		return "BBitMinHash"
	case SuperMinHash:
		return "SuperMinHash"
	case CountingBBitMinHash:
		return "CountingBBitMinHash"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// Suffix returns the family_suffix used by C4 cache naming (§4.4).
// It knows only the base family; for a weighted run the cache naming
// uses WeightedSuffix (".hmh") instead, although the wrapper serializes
// in its base family's layout.
func (f Family) Suffix() string {
	switch f {
	case HLL:
		return ".hll"
	case BloomFilter:
		return ".bf"
	case RangeMinHash:
		return ".rmh"
	case CountingRangeMinHash:
		return ".crmh"
	case FullHashSet:
		return ".khs"
	case BBitMinHash:
		return ".bmh"
	case SuperMinHash:
		return ".bbs"
	case CountingBBitMinHash:
		return ".cbmh"
	default:
		return ".sk"
	}
}

// WeightedSuffix is the file suffix for any family wrapped by the
// multiplicity-aware weighted sketcher (§4.3).
const WeightedSuffix = ".hmh"

// Params is the immutable parameter block shared by every family (§3).
type Params struct {
	K         int
	W         int
	Log2Size  uint8 // p
	B         uint8 // bit-width for b-bit families, default 16
	Canonical bool
	Estim     Estimator
	JEstim    JointEstimator
	Clamp     bool // clamp estimates below expected variance to 0
	Seed      uint64
}

// Estimator selects the HLL cardinality estimator.
type Estimator uint8

const (
	Original Estimator = iota
	ErtlImproved
	ErtlMLE
)

// JointEstimator selects the HLL joint (two-set) estimator.
type JointEstimator uint8

const (
	ErtlJointMLE JointEstimator = iota
	InclusionExclusion
)

// Sketch is the capability every family implements while still being
// mutated ("in progress"). Exactly one worker mutates a given Sketch at a
// time (§3 Sketch invariants).
type Sketch interface {
	// AddHash folds one pre-hashed k-mer into the sketch.
	AddHash(h uint64)

	// MergeInto unions other into the receiver. Must be associative and
	// commutative for families that support union; returns Unsupported
	// otherwise.
	MergeInto(other Sketch) error

	// CardinalityEstimate returns the best available estimate of |S|.
	CardinalityEstimate() float64

	// Jaccard estimates |A∩B|/|A∪B| against other.
	Jaccard(other Sketch) (float64, error)

	// UnionSize estimates |A∪B| against other.
	UnionSize(other Sketch) (float64, error)

	// Containment estimates |A∩B|/|A| (asymmetric); Unsupported where the
	// family cannot answer it (e.g. plain Bloom filters, §7).
	Containment(other Sketch) (float64, error)

	// Family reports the stable family tag.
	Family() Family

	// Serialize writes the self-describing on-disk form (§6.2).
	Serialize(w io.Writer) error

	// Finalize produces the terminal form; callers must not retain the
	// pre-final value afterwards (§9).
	Finalize() (FinalSketch, error)
}

// FinalSketch is the terminal, read-only form of a Sketch after C5's
// sketch-update loop completes for one input. For most families this is
// the identity; bottom-k MinHash additionally sorts its minima.
type FinalSketch interface {
	Sketch
}

// Deserializer reconstructs a Sketch of a given family from its on-disk
// form. Geometry and settings come from the self-describing header; the
// family deserializers do not compare them against params.
type Deserializer func(r io.Reader, p Params) (Sketch, error)
