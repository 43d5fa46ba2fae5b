// Package orchestrator implements the command capability (C8): it wires
// the sketching pipeline (C5), the distance engine (C6) and matrix I/O
// (C7) together into the subcommands named in §6.4 (sketch, dist, union,
// printmat/view). Grounded on kmcp/cmd/compute.go and kmcp/cmd/search.go's
// pattern of building a shared options struct once and dispatching into
// package-level Run functions.
package orchestrator

import (
	"github.com/kmers-io/ksketch/internal/distance"
	"github.com/kmers-io/ksketch/internal/kmerenc"
	"github.com/kmers-io/ksketch/internal/pipeline"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// Options is the full config surface named in §6.5, shared across every
// subcommand that touches the sketching pipeline.
type Options struct {
	// sketch parameters
	K         int
	W         int
	Spacing   string
	Log2Size  uint8
	B         uint8
	Canonical bool
	Family    sketch.Family
	SketchNHash int
	Estim     sketch.Estimator
	JEstim    sketch.JointEstimator
	Clamp     bool

	// encoding
	Encoding kmerenc.Variant
	Score    kmerenc.MinimizerScore

	// weighted (multiplicity-aware) wrapper
	Weighted           bool
	WeightedCMLog2Rows uint8
	WeightedCMHashes   int

	// count-min pre-filter
	Filtering  pipeline.Filtering
	MinCount   uint16
	CMRows     int
	CMLog2Cols uint8

	// caching
	CacheSketches   bool
	CacheDir        string
	PresketchedOnly bool
	SortBySize      bool

	// distance
	ResultType ResultTypeOrDefault
	EmitFormat distance.EmitFormat
	Scientific bool

	// execution
	NumThreads int
	RunSeed    uint64
	Progress   bool
}

// ResultTypeOrDefault is a thin alias kept so orchestrator callers don't
// need to import internal/distance just to name a default.
type ResultTypeOrDefault = distance.ResultType

// pipelineOptions projects Options down to what C5 needs.
func (o *Options) pipelineOptions() *pipeline.Options {
	return &pipeline.Options{
		Family:      o.Family,
		SketchNHash: o.SketchNHash,
		SketchParam: sketch.Params{
			K:         o.K,
			W:         o.W,
			Log2Size:  o.Log2Size,
			B:         o.B,
			Canonical: o.Canonical,
			Estim:     o.Estim,
			JEstim:    o.JEstim,
			Clamp:     o.Clamp,
			Seed:      o.RunSeed,
		},
		Encoding: o.Encoding,
		EncoderParam: kmerenc.Params{
			K:         o.K,
			W:         o.W,
			Spacing:   o.Spacing,
			Canonical: o.Canonical,
			Score:     o.Score,
			Seed:      o.RunSeed,
		},
		Weighted:           o.Weighted,
		WeightedCMLog2Rows: o.WeightedCMLog2Rows,
		WeightedCMHashes:   o.WeightedCMHashes,
		Filtering:          o.Filtering,
		MinCount:           o.MinCount,
		CMRows:             o.CMRows,
		CMLog2Cols:         o.CMLog2Cols,
		RunSeed:            o.RunSeed,
		CacheSketches:      o.CacheSketches,
		CacheDir:           o.CacheDir,
		SortBySize:         o.SortBySize,
	}
}

// validate enforces the startup-time ConfigError checks named in §4.5/§7
// (k out of range) before any worker is spawned.
func (o *Options) validate() error {
	if o.K < 1 || o.K > 64 {
		return &ConfigError{Reason: "k out of range [1,64]"}
	}
	if o.Encoding == kmerenc.Exact && o.K > 32 {
		return &ConfigError{Reason: "exact encoding requires k<=32"}
	}
	return nil
}

// ConfigError reports an invalid orchestrator configuration detected
// before any pipeline work begins (§7).
type ConfigError struct{ Reason string }

func (e *ConfigError) Error() string { return "orchestrator: config error: " + e.Reason }

// buildOrLoad produces one Slot per input, either by running the full
// sketching pipeline (C5) or, when PresketchedOnly is set (§6.1's
// --presketched), by deserializing each input's single path directly as
// an already-built sketch file.
func (o *Options) buildOrLoad(inputs []pipeline.Input) ([]*pipeline.Slot, error) {
	if !o.PresketchedOnly {
		return pipeline.Run(o.pipelineOptions(), inputs, o.NumThreads, o.Progress)
	}

	params := sketch.Params{
		K: o.K, W: o.W, Log2Size: o.Log2Size, B: o.B, Canonical: o.Canonical,
		Estim: o.Estim, JEstim: o.JEstim, Clamp: o.Clamp, Seed: o.RunSeed,
	}
	slots := make([]*pipeline.Slot, len(inputs))
	for i, in := range inputs {
		if len(in.Paths) != 1 {
			return nil, &ConfigError{Reason: "presketched input " + in.Logical + " must name exactly one file"}
		}
		sk, err := loadSketch(in.Paths[0], o.Family, params)
		if err != nil {
			return nil, err
		}
		fs, err := sk.Finalize()
		if err != nil {
			return nil, err
		}
		slots[i] = &pipeline.Slot{Input: in, Sketch: fs}
	}
	return slots, nil
}
