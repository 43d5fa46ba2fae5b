package kmerenc

import "container/list"

// exactEncoder is the "Bonsai" bit-packed encoder (§3, §4.2): each
// admitted k-mer is packed 2 bits/base (respecting an optional spaced
// seed mask), canonicalized against its reverse complement, then run
// through mix64 to spread the packed integer across the full 64-bit hash
// space. k is capped at 32 so the packed value always fits a uint64.
type exactEncoder struct {
	k         int
	mask      []bool
	weight    int // number of active mask positions
	canonical bool
	circular  bool
	w         int
	score     MinimizerScore
	seed      uint64
}

func newExactEncoder(p Params) (*exactEncoder, error) {
	mask, err := spacedSeedMask(p.Spacing, p.K)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	weight := 0
	for _, m := range mask {
		if m {
			weight++
		}
	}
	return &exactEncoder{
		k: p.K, mask: mask, weight: weight,
		canonical: p.Canonical, circular: p.Circular,
		w: p.W, score: p.Score, seed: p.Seed,
	}, nil
}

func (e *exactEncoder) Variant() Variant { return Exact }

func (e *exactEncoder) NewIterator(seq []byte) (Iterator, error) {
	if len(seq) < e.k && !e.circular {
		return nil, ErrShortSequence
	}
	hashes, entropies := e.packAll(seq)
	if e.w > 1 {
		hashes, entropies = minimizerSelect(hashes, entropies, e.w, e.score)
	}
	return &sliceIterator{hashes: hashes}, nil
}

// packAll produces one packed-then-mixed hash per valid k-mer position,
// skipping positions whose window touches a non-ACGT base. entropies[i]
// is the distinct-base count of hashes[i]'s source window, used only by
// the Entropy minimizer tie-break.
func (e *exactEncoder) packAll(seq []byte) (hashes []uint64, entropies []int) {
	n := len(seq)
	limit := n - e.k
	if e.circular {
		limit = n - 1
	}
	if limit < 0 {
		return nil, nil
	}
	hashes = make([]uint64, 0, limit+1)
	entropies = make([]int, 0, limit+1)
	for i := 0; i <= limit; i++ {
		fwd, rev, ent, ok := e.packWindow(seq, i, n)
		if !ok {
			continue
		}
		packed := fwd
		if e.canonical && rev < fwd {
			packed = rev
		}
		hashes = append(hashes, mix64(packed, e.seed))
		entropies = append(entropies, ent)
	}
	return hashes, entropies
}

func (e *exactEncoder) packWindow(seq []byte, start, n int) (fwd, rev uint64, entropy int, ok bool) {
	var seen [4]bool
	for j := 0; j < e.k; j++ {
		pos := start + j
		if e.circular {
			pos %= n
		}
		code, valid := base2bit(seq[pos])
		if !valid {
			return 0, 0, 0, false
		}
		seen[code] = true
		if !e.mask[j] {
			continue
		}
		fwd = fwd<<2 | code
		rev = rev>>2 | (complement2bit(code) << uint((e.weight-1)*2))
	}
	for _, s := range seen {
		if s {
			entropy++
		}
	}
	return fwd, rev, entropy, true
}

type sliceIterator struct {
	hashes []uint64
	i      int
}

func (it *sliceIterator) Next() (uint64, bool, error) {
	if it.i >= len(it.hashes) {
		return 0, false, nil
	}
	h := it.hashes[it.i]
	it.i++
	return h, true, nil
}

// minimizerSelect reduces a per-position hash stream to one hash per
// distinct window minimum over a sliding window of size w, using a
// monotonic deque (classic minimizer selection). On ties, Entropy scoring
// prefers the candidate with more distinct bases in its source window;
// Lexicographic scoring (the default) keeps the smallest hash regardless
// of entropy, i.e. plain FIFO tie-break favoring the earliest occurrence.
func minimizerSelect(hashes []uint64, entropies []int, w int, score MinimizerScore) ([]uint64, []int) {
	if len(hashes) == 0 {
		return nil, nil
	}
	type cand struct {
		idx int
		h   uint64
	}
	dq := list.New()
	var out []uint64
	var outEnt []int
	var lastEmitted = -1

	better := func(a, b cand) bool {
		if hashes[a.idx] != hashes[b.idx] {
			return hashes[a.idx] < hashes[b.idx]
		}
		if score == Entropy && entropies[a.idx] != entropies[b.idx] {
			return entropies[a.idx] > entropies[b.idx]
		}
		return a.idx < b.idx
	}

	for i := range hashes {
		c := cand{idx: i, h: hashes[i]}
		for dq.Len() > 0 && !better(dq.Back().Value.(cand), c) {
			dq.Remove(dq.Back())
		}
		dq.PushBack(c)
		for dq.Len() > 0 && dq.Front().Value.(cand).idx <= i-w {
			dq.Remove(dq.Front())
		}
		if i >= w-1 {
			min := dq.Front().Value.(cand)
			if min.idx != lastEmitted {
				out = append(out, hashes[min.idx])
				outEnt = append(outEnt, entropies[min.idx])
				lastEmitted = min.idx
			}
		}
	}
	return out, outEnt
}
