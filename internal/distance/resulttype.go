// Package distance implements the distance engine capability (C6):
// parallel pairwise or query×reference evaluation over a vector of
// finalized sketches, formatted and streamed to an output sink.
// Grounded on kmcp/cmd/util-db-search.go's InCh/OutCh worker-pool shape
// (bounded token channel feeding workers, a single consumer draining
// results) generalized from k-mer index search to row-wise distance
// computation.
package distance

import (
	"fmt"
	"math"

	"github.com/kmers-io/ksketch/internal/sketch"
)

// ResultType is the result-type tag of §3/§4.6.
type ResultType uint8

const (
	JI ResultType = iota
	MashDist
	FullMashDist
	Sizes
	ContainmentIndex
	ContainmentDist
	FullContainmentDist
	SymContainmentIndex
	SymContainmentDist
)

// Symmetric reports whether a result type can be computed without
// distinct query/reference roles (§4.6's "symmetric set").
func (r ResultType) Symmetric() bool {
	switch r {
	case JI, MashDist, FullMashDist, Sizes, SymContainmentIndex, SymContainmentDist:
		return true
	default:
		return false
	}
}

func (r ResultType) String() string {
	switch r {
	case JI:
		return "JI"
	case MashDist:
		return "MashDist"
	case FullMashDist:
		return "FullMashDist"
	case Sizes:
		return "Sizes"
	case ContainmentIndex:
		return "ContainmentIndex"
	case ContainmentDist:
		return "ContainmentDist"
	case FullContainmentDist:
		return "FullContainmentDist"
	case SymContainmentIndex:
		return "SymContainmentIndex"
	case SymContainmentDist:
		return "SymContainmentDist"
	default:
		return fmt.Sprintf("ResultType(%d)", uint8(r))
	}
}

// ParseResultType maps a --result-type flag value to a ResultType.
func ParseResultType(name string) (ResultType, error) {
	for _, r := range []ResultType{JI, MashDist, FullMashDist, Sizes, ContainmentIndex,
		ContainmentDist, FullContainmentDist, SymContainmentIndex, SymContainmentDist} {
		if r.String() == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("distance: unknown result_type %q", name)
}

func mashDist(ji float64, k int) float64 {
	if ji == 0 {
		return 1
	}
	return -math.Log(2*ji/(1+ji)) / float64(k)
}

func fullMashDist(ji float64, k int) float64 {
	return 1 - math.Pow(2*ji/(1+ji), 1/float64(k))
}

func containmentDist(c float64, k int) float64 {
	if c == 0 {
		return 1
	}
	return -math.Log(c) / float64(k)
}

func fullContainmentDist(c float64, k int) float64 {
	return 1 - math.Pow(c, 1/float64(k))
}

// Evaluate computes r(a,b) per the §4.6 formula table. k is the k-mer
// length used by the log-distance formulas.
func Evaluate(r ResultType, a, b sketch.Sketch, k int) (float64, error) {
	switch r {
	case JI:
		return a.Jaccard(b)
	case MashDist:
		ji, err := a.Jaccard(b)
		if err != nil {
			return 0, err
		}
		return mashDist(ji, k), nil
	case FullMashDist:
		ji, err := a.Jaccard(b)
		if err != nil {
			return 0, err
		}
		return fullMashDist(ji, k), nil
	case Sizes:
		return a.UnionSize(b)
	case ContainmentIndex:
		return a.Containment(b)
	case ContainmentDist:
		c, err := a.Containment(b)
		if err != nil {
			return 0, err
		}
		return containmentDist(c, k), nil
	case FullContainmentDist:
		c, err := a.Containment(b)
		if err != nil {
			return 0, err
		}
		return fullContainmentDist(c, k), nil
	case SymContainmentIndex:
		cab, err := a.Containment(b)
		if err != nil {
			return 0, err
		}
		cba, err := b.Containment(a)
		if err != nil {
			return 0, err
		}
		return math.Max(cab, cba), nil
	case SymContainmentDist:
		cab, err := a.Containment(b)
		if err != nil {
			return 0, err
		}
		cba, err := b.Containment(a)
		if err != nil {
			return 0, err
		}
		return mashDist(math.Max(cab, cba), k), nil
	default:
		return 0, fmt.Errorf("distance: unhandled result_type %s", r)
	}
}
