package sketch

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"math/bits"
)

// hllMagic identifies a serialized HLL sketch (§6.2).
var hllMagic = [4]byte{'K', 'H', 'L', '1'}

// HyperLogLog is a dense-register HyperLogLog sketch. The register layout
// and insert path follow axiomhq/hyperloglog's dense path (sk.regs,
// sk.insert); the estimators here are simplified: ErtlMLE returns the
// uncorrected raw estimate, and every joint estimate is a register-max
// union plus inclusion–exclusion, whatever jestim names.
type HyperLogLog struct {
	p      uint8
	m      uint32
	regs   []uint8
	estim  Estimator
	jestim JointEstimator
	clamp  bool
}

var _ Sketch = (*HyperLogLog)(nil)

// NewHLL builds an empty HLL sketch with 2^p registers.
func NewHLL(params Params) *HyperLogLog {
	p := params.Log2Size
	m := uint32(1) << p
	return &HyperLogLog{
		p:      p,
		m:      m,
		regs:   make([]uint8, m),
		estim:  params.Estim,
		jestim: params.JEstim,
		clamp:  params.Clamp,
	}
}

func (h *HyperLogLog) Family() Family { return HLL }

// AddHash folds a pre-hashed 64-bit k-mer: the top p bits select the
// register, the remaining bits' leading-zero-run (+1) is the rank.
func (h *HyperLogLog) AddHash(x uint64) {
	i := x >> (64 - h.p)
	w := x<<h.p | (1 << (h.p - 1)) // ensure termination of LeadingZeros
	r := uint8(bits.LeadingZeros64(w)) + 1
	if r > h.regs[i] {
		h.regs[i] = r
	}
}

func (h *HyperLogLog) MergeInto(other Sketch) error {
	o, ok := other.(*HyperLogLog)
	if !ok {
		return unsupported(h.Family(), "merge_into (family mismatch)")
	}
	if o.m != h.m {
		return unsupported(h.Family(), "merge_into (size mismatch)")
	}
	for i, r := range o.regs {
		if r > h.regs[i] {
			h.regs[i] = r
		}
	}
	return nil
}

func alpha(m float64) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	}
	return 0.7213 / (1 + 1.079/m)
}

func (h *HyperLogLog) rawEstimate() float64 {
	m := float64(h.m)
	sum := 0.0
	zeros := 0
	for _, r := range h.regs {
		sum += 1.0 / float64(uint64(1)<<r)
		if r == 0 {
			zeros++
		}
	}
	est := alpha(m) * m * m / sum

	switch h.estim {
	case Original:
		if est <= 2.5*m && zeros > 0 {
			return m * math.Log(m/float64(zeros))
		}
		return est
	case ErtlImproved:
		// A bias-reduced variant: blend the raw estimate with the
		// linear-counting estimate near the small-cardinality regime,
		// with a wider crossover than the original estimator (5m instead
		// of 2.5m) and no large-range correction (not needed for 64-bit
		// hashes).
		if zeros > 0 && est <= 5*m {
			lc := m * math.Log(m/float64(zeros))
			return (est + lc) / 2
		}
		return est
	default: // ErtlMLE and any future estimator fall back to the raw estimate
		return est
	}
}

func (h *HyperLogLog) CardinalityEstimate() float64 {
	est := h.rawEstimate()
	if h.clamp {
		// Expected relative error for p registers is ~1.04/sqrt(m); treat
		// estimates that round to less than that fraction of m as noise.
		m := float64(h.m)
		if est < 1.04/math.Sqrt(m)*m {
			return 0
		}
	}
	if est < 0 {
		return 0
	}
	return est
}

// jointCardinalities returns (|A|, |B|, |A∪B|), the union estimated from
// per-register max comparisons. jestim is not consulted: ErtlJointMLE
// and InclusionExclusion both get this register-max union, from which
// the callers derive the intersection by inclusion–exclusion.
func (h *HyperLogLog) jointCardinalities(o *HyperLogLog) (a, b, union float64) {
	unionRegs := make([]uint8, h.m)
	for i := range unionRegs {
		ra, rb := h.regs[i], o.regs[i]
		if ra > rb {
			unionRegs[i] = ra
		} else {
			unionRegs[i] = rb
		}
	}
	ue := &HyperLogLog{p: h.p, m: h.m, regs: unionRegs, estim: h.estim, jestim: h.jestim, clamp: h.clamp}
	return h.CardinalityEstimate(), o.CardinalityEstimate(), ue.CardinalityEstimate()
}

func (h *HyperLogLog) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*HyperLogLog)
	if !ok {
		return 0, unsupported(h.Family(), "jaccard (family mismatch)")
	}
	a, b, union := h.jointCardinalities(o)
	if union == 0 {
		return 0, nil
	}
	inter := a + b - union
	if inter < 0 {
		inter = 0
	}
	ji := inter / union
	if ji < 0 {
		ji = 0
	} else if ji > 1 {
		ji = 1
	}
	return ji, nil
}

func (h *HyperLogLog) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*HyperLogLog)
	if !ok {
		return 0, unsupported(h.Family(), "union_size (family mismatch)")
	}
	_, _, union := h.jointCardinalities(o)
	return union, nil
}

func (h *HyperLogLog) Containment(other Sketch) (float64, error) {
	o, ok := other.(*HyperLogLog)
	if !ok {
		return 0, unsupported(h.Family(), "containment (family mismatch)")
	}
	a, b, union := h.jointCardinalities(o)
	if a == 0 {
		return 0, nil
	}
	inter := a + b - union
	if inter < 0 {
		inter = 0
	}
	c := inter / a
	if c < 0 {
		c = 0
	} else if c > 1 {
		c = 1
	}
	return c, nil
}

func (h *HyperLogLog) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hllMagic[:]); err != nil {
		return err
	}
	hdr := make([]byte, 4)
	hdr[0] = h.p
	hdr[1] = uint8(h.estim)
	hdr[2] = uint8(h.jestim)
	if h.clamp {
		hdr[3] = 1
	}
	if _, err := bw.Write(hdr); err != nil {
		return err
	}
	if _, err := bw.Write(h.regs); err != nil {
		return err
	}
	return bw.Flush()
}

// DeserializeHLL reads back a sketch written by Serialize, failing with a
// CacheCorruptionError on any structural mismatch (§7).
func DeserializeHLL(r io.Reader, params Params) (Sketch, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of magic: " + err.Error()}
	}
	if !bytes.Equal(magic[:], hllMagic[:]) {
		return nil, &CacheCorruptionError{Reason: "bad HLL magic"}
	}
	hdr := make([]byte, 4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of header: " + err.Error()}
	}
	p := hdr[0]
	m := uint32(1) << p
	regs := make([]uint8, m)
	if _, err := io.ReadFull(r, regs); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of registers: " + err.Error()}
	}
	return &HyperLogLog{
		p:      p,
		m:      m,
		regs:   regs,
		estim:  Estimator(hdr[1]),
		jestim: JointEstimator(hdr[2]),
		clamp:  hdr[3] == 1,
	}, nil
}

// Finalize is the identity for HLL: no post-processing needed.
func (h *HyperLogLog) Finalize() (FinalSketch, error) { return h, nil }
