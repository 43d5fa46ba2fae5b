package kmerenc

// cyclicEncoder computes a polynomial hash over 2-bit bases for each
// k-mer window, ignoring ambiguous bases the way exactEncoder does. It
// does not bit-pack the k-mer into a fixed-width integer, so unlike
// exactEncoder it has no 32-base ceiling on k. Grounded on the same
// canonicalization shape as exactEncoder and nthashEncoder (compute both
// strands, keep the smaller); the polynomial itself is evaluated fresh
// per window rather than rolled incrementally, trading the rolling-hash
// speedup for a simpler, easier-to-audit implementation.
type cyclicEncoder struct {
	k         int
	canonical bool
	seed      uint64
}

func newCyclicEncoder(p Params) *cyclicEncoder {
	return &cyclicEncoder{k: p.K, canonical: p.Canonical, seed: p.Seed}
}

func (e *cyclicEncoder) Variant() Variant { return Cyclic }

const cyclicBase uint64 = 0x100000001b3

func (e *cyclicEncoder) NewIterator(seq []byte) (Iterator, error) {
	if len(seq) < e.k {
		return nil, ErrShortSequence
	}
	return &cyclicIterator{enc: e, seq: seq}, nil
}

type cyclicIterator struct {
	enc *cyclicEncoder
	seq []byte
	pos int
}

func (it *cyclicIterator) Next() (uint64, bool, error) {
	e := it.enc
	for it.pos+e.k <= len(it.seq) {
		start := it.pos
		it.pos++

		var fwd uint64
		ok := true
		for j := 0; j < e.k; j++ {
			code, valid := base2bit(it.seq[start+j])
			if !valid {
				ok = false
				break
			}
			fwd = fwd*cyclicBase + (code + 1)
		}
		if !ok {
			continue
		}
		// Reverse complement read 5'->3' visits bases in the opposite
		// order from fwd, so it is accumulated with its own pass rather
		// than derived from fwd's digits.
		var rev uint64
		for j := e.k - 1; j >= 0; j-- {
			code, _ := base2bit(it.seq[start+j])
			rev = rev*cyclicBase + (complement2bit(code) + 1)
		}

		packed := fwd
		if e.canonical && rev < fwd {
			packed = rev
		}
		return mix64(packed, e.seed), true, nil
	}
	return 0, false, nil
}
