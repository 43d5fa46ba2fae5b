package orchestrator

import (
	"io"

	"github.com/kmers-io/ksketch/internal/distance"
	"github.com/kmers-io/ksketch/internal/matrix"
	"github.com/kmers-io/ksketch/internal/pipeline"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// RunDist executes the dist subcommand (§4.8): C5 to build sketches for
// every reference (and, in query/reference mode, every query), then C6
// to compute and stream the result matrix.
//
// When queries is non-empty the run is in query/reference mode: refs are
// sketched as R references, queries as Q queries, and the engine
// computes the Q×R block. Otherwise it is a symmetric all-pairs run over
// refs alone.
// labelsOut, when non-nil, receives the column labels sidecar (§6.3) —
// required for the Binary sink, since a binary matrix carries no labels
// of its own and printmat/flatten can only round-trip one back with its
// "<matrix>.labels" sidecar already on disk.
func RunDist(opts *Options, refs, queries []pipeline.Input, sizesOut, matrixOut, labelsOut io.Writer) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if !opts.ResultType.Symmetric() && len(queries) == 0 {
		return &ConfigError{Reason: "result_type " + opts.ResultType.String() + " requires query/reference mode (-Q)"}
	}
	if opts.EmitFormat == distance.FullTSV && len(queries) > 0 {
		return &ConfigError{Reason: "full-matrix TSV output only supports symmetric mode"}
	}

	refSlots, err := opts.buildOrLoad(refs)
	if err != nil {
		return err
	}
	if sizesOut != nil {
		if err := writeSizes(sizesOut, refSlots); err != nil {
			return err
		}
	}

	sketches := make([]sketch.FinalSketch, 0, len(refSlots)+len(queries))
	labels := make([]string, 0, cap(sketches))
	for _, s := range refSlots {
		sketches = append(sketches, s.Sketch)
		labels = append(labels, s.Input.Label)
	}
	numRefs := len(refSlots)

	mode := distance.SymmetricMode
	if len(queries) > 0 {
		mode = distance.QueryReferenceMode
		qSlots, err := opts.buildOrLoad(queries)
		if err != nil {
			return err
		}
		for _, s := range qSlots {
			sketches = append(sketches, s.Sketch)
			labels = append(labels, s.Input.Label)
		}
	}

	eng, err := distance.New(mode, sketches, labels, numRefs, opts.ResultType, opts.K, opts.NumThreads)
	if err != nil {
		return err
	}

	// colLabels names the matrix columns: in symmetric mode every input is
	// a column; in query/reference mode only the references are.
	colLabels := labels[:numRefs]
	n := numRefs
	if mode == distance.SymmetricMode {
		colLabels = labels
	}

	if opts.EmitFormat == distance.Binary && labelsOut != nil {
		if err := matrix.WriteLabels(labelsOut, colLabels); err != nil {
			return err
		}
	}

	// FullTSV's diagonal is evaluated up front: RunSymmetric drops each
	// sketch from the shared slice once its row is computed, before the
	// sink receives that row.
	var diag []float64
	if opts.EmitFormat == distance.FullTSV {
		diag = make([]float64, len(sketches))
		for i, s := range sketches {
			diag[i], _ = distance.Evaluate(opts.ResultType, s, s, opts.K)
		}
	}

	sink, err := distance.NewSink(matrixOut, distance.SinkConfig{
		Format:     opts.EmitFormat,
		Labels:     colLabels,
		Scientific: opts.Scientific,
		N:          n,
		Width:      matrix.Float64,
		Diag:       func(i int) float64 { return diag[i] },
	})
	if err != nil {
		return err
	}

	if mode == distance.SymmetricMode {
		return eng.RunSymmetric(sink)
	}
	return eng.RunQueryReference(sink)
}
