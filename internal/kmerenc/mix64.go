package kmerenc

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// mix64 is the exact/cyclic encoders' default 64-bit hash: it spreads a
// packed/polynomial k-mer integer across the full hash space, seeded by
// the run's seed so two runs with different --run-seed values never
// collide on the same hash for the same k-mer. Grounded on
// internal/sketch/weighted.go's identical xxh3.HashSeed-over-8-bytes
// pattern.
func mix64(packed, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], packed)
	return xxh3.HashSeed(buf[:], seed)
}
