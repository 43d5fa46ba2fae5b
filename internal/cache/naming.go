// Package cache implements the sketch cache/naming capability (C4):
// deterministic derivation of a sketch's on-disk path from its full
// parameter set, and load-if-present/write-on-miss access to it.
// Grounded on kmcp/cmd/compute.go's outFile derivation
// (filepath.Join(outDir, base(file)+extDataFile)), extended with the
// parameter-encoding filename scheme (§4.4): a cache entry's name
// carries enough of the run's parameters that two runs with different
// k/w/spacing/family never collide on one entry.
package cache

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"path/filepath"

	"github.com/kmers-io/ksketch/internal/kmerenc"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// FNameSep is the single-character separator that joins multiple
// physical paths into one logical input (§6.1's default U+0020).
const FNameSep = " "

// Key is the full set of parameters that determine a sketch's contents,
// independent of which input file produced it (§4.4).
type Key struct {
	Family    sketch.Family
	Encoding  kmerenc.Variant
	K         int
	W         int
	Log2Size  int
	B         int
	Canonical bool
	Estim     sketch.Estimator
	JEstim    sketch.JointEstimator
	Clamp     bool
	Seed      uint64
	MinCount  uint16
	Weighted  bool
	Spacing   string
}

// suffix maps a Key's family to the on-disk extension named in §4.4's
// family_suffix table (sketch.Family.Suffix). The weighted wrapper always
// uses .hmh regardless of which family it wraps.
func (k Key) suffix() string {
	if k.Weighted {
		return sketch.WeightedSuffix
	}
	return k.Family.Suffix()
}

// residualTag hashes every field of Key that the literal naming scheme
// below has no slot for (family, encoding, canonical, estimators,
// clamp, seed, min_count, weighted, b) into a short filesystem-safe token,
// reusing the naming scheme's optional "suf{suffix}" segment for it.
// Without this, two runs differing only in, say, hll_estim would
// collide on the same cache path even though their sketch bytes differ.
func (k Key) residualTag() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%v|%d|%d|%v|%d|%d|%v|%d",
		k.Family, k.Encoding, k.Canonical, k.Estim, k.JEstim, k.Clamp, k.Seed, k.MinCount, k.Weighted, k.B)
	sum := h.Sum(nil)
	return base32.HexEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:8])
}

// BaseName returns the basename of the last FNAME_SEP-joined sub-path in
// a logical input, per §4.4's "basename(path after last FNAME_SEP)".
func BaseName(logicalInput string) string {
	paths := SplitInput(logicalInput)
	return filepath.Base(paths[len(paths)-1])
}

// SplitInput splits a logical input on FNAME_SEP into its sub-paths.
func SplitInput(logicalInput string) []string {
	var out []string
	start := 0
	for i := 0; i < len(logicalInput); i++ {
		if logicalInput[i] == FNameSep[0] {
			out = append(out, logicalInput[start:i])
			start = i + 1
		}
	}
	out = append(out, logicalInput[start:])
	return out
}

// PathFor derives the deterministic cache path for logicalInput under
// cacheDir, following §4.4's
// "{prefix/}{basename}.w{max(k,w)}.{k}.spacing{spacing}.suf{tag}.{p}{family_suffix}".
func PathFor(cacheDir, logicalInput string, key Key) string {
	base := BaseName(logicalInput)
	w := key.W
	if key.K > w {
		w = key.K
	}
	spacing := key.Spacing
	if spacing == "" {
		spacing = "none"
	}
	name := fmt.Sprintf("%s.w%d.%d.spacing%s.suf%s.%d%s",
		base, w, key.K, spacing, key.residualTag(), key.Log2Size, key.suffix())
	return filepath.Join(cacheDir, name)
}
