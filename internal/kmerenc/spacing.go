package kmerenc

import "fmt"

// spacedSeedMask parses a spaced-seed pattern such as "1110111" (§4.2)
// into a boolean mask of length k: true marks a position that
// contributes to the encoded k-mer, false marks a don't-care position
// that is skipped. An empty pattern means "no spacing", i.e. every
// position contributes.
func spacedSeedMask(pattern string, k int) ([]bool, error) {
	if pattern == "" {
		mask := make([]bool, k)
		for i := range mask {
			mask[i] = true
		}
		return mask, nil
	}
	if len(pattern) != k {
		return nil, fmt.Errorf("kmerenc: spacing pattern length %d does not match k=%d", len(pattern), k)
	}
	mask := make([]bool, k)
	weight := 0
	for i := 0; i < k; i++ {
		switch pattern[i] {
		case '1':
			mask[i] = true
			weight++
		case '0':
			mask[i] = false
		default:
			return nil, fmt.Errorf("kmerenc: spacing pattern must be 0/1, got %q at position %d", pattern[i], i)
		}
	}
	if weight == 0 {
		return nil, fmt.Errorf("kmerenc: spacing pattern %q has no active positions", pattern)
	}
	// The two end positions must be active or the "seed" degenerates into
	// a shorter contiguous k-mer under a different name.
	if !mask[0] || !mask[k-1] {
		return nil, fmt.Errorf("kmerenc: spacing pattern %q must be anchored at both ends", pattern)
	}
	return mask, nil
}
