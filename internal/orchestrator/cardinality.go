package orchestrator

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kmers-io/ksketch/internal/pipeline"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// RunCardinality executes the hll subcommand (dashing.cpp's hll_main,
// folded back per SPEC_FULL.md's supplemented-features section): C5
// only, reporting each input's path and HLL cardinality estimate
// without computing a distance matrix. When exact is true, a second C5
// pass rebuilds every input as an exact FullHashSet and reports its
// true distinct-hash count alongside the estimate.
func RunCardinality(opts *Options, inputs []pipeline.Input, out io.Writer, exact bool) error {
	if err := opts.validate(); err != nil {
		return err
	}
	slots, err := opts.buildOrLoad(inputs)
	if err != nil {
		return err
	}

	var exactSlots []*pipeline.Slot
	if exact {
		exactOpts := *opts
		exactOpts.Family = sketch.FullHashSet
		exactOpts.Weighted = false
		exactOpts.PresketchedOnly = false
		exactSlots, err = exactOpts.buildOrLoad(inputs)
		if err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(out)
	header := "#Path\tCardinality (est.)"
	if exact {
		header += "\tCardinality (exact)"
	}
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return err
	}
	for i, s := range slots {
		if exact {
			if _, err := fmt.Fprintf(bw, "%s\t%.0f\t%.0f\n", s.Input.Label, s.Sketch.CardinalityEstimate(), exactSlots[i].Sketch.CardinalityEstimate()); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s\t%.0f\n", s.Input.Label, s.Sketch.CardinalityEstimate()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
