package orchestrator

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kmers-io/ksketch/internal/pipeline"
)

// RunSketch executes the sketch subcommand (§4.8): C5 only, with a sizes
// report streamed to sizesOut once every input has been built.
func RunSketch(opts *Options, inputs []pipeline.Input, sizesOut io.Writer) ([]*pipeline.Slot, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	slots, err := opts.buildOrLoad(inputs)
	if err != nil {
		return nil, err
	}
	if sizesOut != nil {
		if err := writeSizes(sizesOut, slots); err != nil {
			return nil, err
		}
	}
	return slots, nil
}

// writeSizes emits §4.8's "#Path\tSize (est.)\n" prelude followed by one
// row per input, its cardinality estimate rounded to the nearest unit.
func writeSizes(w io.Writer, slots []*pipeline.Slot) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("#Path\tSize (est.)\n"); err != nil {
		return err
	}
	for _, s := range slots {
		if _, err := fmt.Fprintf(bw, "%s\t%.0f\n", s.Input.Label, s.Sketch.CardinalityEstimate()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
