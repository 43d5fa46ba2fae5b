// Package xdiv wraps github.com/bmkessler/fastdiv's precomputed-divisor
// trick behind a tiny, allocation-free helper. Both the Bloom filter (C1)
// and the Count-Min filter (C3) reduce a 64-bit hash modulo a runtime-fixed
// table width tens of millions of times per input; fastdiv turns that
// division into a multiply-shift once the divisor is fixed for the run.
package xdiv

import "github.com/bmkessler/fastdiv"

// Divisor divides/mods by a fixed uint64 much faster than the hardware
// DIV instruction once constructed.
type Divisor struct {
	d fastdiv.Uint64
}

// New precomputes a divisor for n. n must be > 0.
func New(n uint64) Divisor {
	return Divisor{d: fastdiv.NewUint64(n)}
}

// Mod returns x % n for the n this Divisor was built with.
func (dv Divisor) Mod(x uint64) uint64 {
	return dv.d.Mod(x)
}
