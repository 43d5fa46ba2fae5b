package kmerenc

import "github.com/will-rowe/nthash"

// nthashEncoder wraps will-rowe/nthash's rolling ntHash implementation,
// grounded on will-rowe/baby-groot's minhash.KMVsketch.AddSequence: build
// a hasher per sequence with nthash.NewHasher(&seq, k), then range over
// hasher.Hash(canonical). kmcp's go.mod already lists this package as an
// indirect dependency of unikmer, so this makes it a direct one.
type nthashEncoder struct {
	k         int
	canonical bool
}

func newNTHashEncoder(p Params) *nthashEncoder {
	return &nthashEncoder{k: p.K, canonical: p.Canonical}
}

func (e *nthashEncoder) Variant() Variant { return NTHash }

func (e *nthashEncoder) NewIterator(seq []byte) (Iterator, error) {
	if len(seq) < e.k {
		return nil, ErrShortSequence
	}
	hasher, err := nthash.NewHasher(&seq, uint(e.k))
	if err != nil {
		return nil, err
	}
	return &nthashIterator{ch: hasher.Hash(e.canonical)}, nil
}

type nthashIterator struct {
	ch <-chan uint64
}

func (it *nthashIterator) Next() (uint64, bool, error) {
	h, ok := <-it.ch
	return h, ok, nil
}
