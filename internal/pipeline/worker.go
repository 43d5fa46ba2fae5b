package pipeline

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/kmers-io/ksketch/internal/cache"
	"github.com/kmers-io/ksketch/internal/countmin"
	"github.com/kmers-io/ksketch/internal/kmerenc"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// Filtering selects the Count-Min pre-filter mode (§4.3, §6.5).
type Filtering uint8

const (
	NoFilter Filtering = iota
	CountMinFilter
	ByFilenameFilter
)

// Options configures one pipeline run, shared read-only by every worker.
type Options struct {
	Family      sketch.Family
	SketchNHash int
	SketchParam sketch.Params
	Encoding    kmerenc.Variant
	EncoderParam kmerenc.Params
	Weighted    bool
	WeightedCMLog2Rows uint8
	WeightedCMHashes   int

	Filtering  Filtering
	MinCount   uint16
	CMRows     int
	CMLog2Cols uint8
	RunSeed    uint64

	CacheSketches bool
	CacheDir      string
	SortBySize    bool
}

// worker builds one finalized sketch for in, per §4.5's "per-input work".
type worker struct {
	opts  *Options
	index int // stable worker id, used to derive the CM seed
	cm    *countmin.Sketch
}

func newWorker(opts *Options, index int) *worker {
	w := &worker{opts: opts, index: index}
	if opts.Filtering != NoFilter {
		w.cm = countmin.New(opts.CMRows, uint64(1)<<opts.CMLog2Cols, countmin.Seed(index, opts.RunSeed))
	}
	return w
}

// byFnameApplies reports whether ByFilenameFilter gates this sub-path,
// per §4.3's case-sensitive ".fq"/".fastq" substring rule.
func byFnameApplies(path string) bool {
	return strings.Contains(path, ".fq") || strings.Contains(path, ".fastq")
}

func (w *worker) filterActive(path string) bool {
	switch w.opts.Filtering {
	case CountMinFilter:
		return true
	case ByFilenameFilter:
		return byFnameApplies(path)
	default:
		return false
	}
}

// cacheKey derives this run's cache key for the given logical input.
func (w *worker) cacheKey() cache.Key {
	return cache.Key{
		Family:    w.opts.Family,
		Encoding:  w.opts.Encoding,
		K:         w.opts.EncoderParam.K,
		W:         w.opts.EncoderParam.W,
		Log2Size:  int(w.opts.SketchParam.Log2Size),
		B:         int(w.opts.SketchParam.B),
		Canonical: w.opts.SketchParam.Canonical,
		Estim:     w.opts.SketchParam.Estim,
		JEstim:    w.opts.SketchParam.JEstim,
		Clamp:     w.opts.SketchParam.Clamp,
		Seed:      w.opts.SketchParam.Seed,
		MinCount:  w.opts.MinCount,
		Weighted:  w.opts.Weighted,
		Spacing:   w.opts.EncoderParam.Spacing,
	}
}

// Build runs §4.5's per-input work for a single Input, returning its
// finalized sketch.
func (w *worker) Build(in Input) (sketch.FinalSketch, error) {
	key := w.cacheKey()
	var store *cache.Store
	if w.opts.CacheSketches {
		store = &cache.Store{Dir: w.opts.CacheDir}
		if sk, ok, err := store.Load(in.Logical, key, w.opts.SketchParam); err != nil {
			return nil, err
		} else if ok {
			fs, ferr := sk.Finalize()
			if ferr != nil {
				return nil, ferr
			}
			return fs, nil
		}
	}

	base, err := sketch.New(w.opts.Family, w.opts.SketchParam, w.opts.SketchNHash)
	if err != nil {
		return nil, err
	}
	var target sketch.Sketch = base
	if w.opts.Weighted {
		target = sketch.NewWeighted(base, w.opts.WeightedCMLog2Rows, w.opts.WeightedCMHashes)
	}

	enc, err := kmerenc.New(w.opts.Encoding, w.opts.EncoderParam)
	if err != nil {
		return nil, err
	}

	for _, p := range in.Paths {
		if err := w.sketchPath(p, enc, target); err != nil {
			return nil, &InputError{Path: p, Cause: err}
		}
	}
	if w.cm != nil {
		w.cm.Clear()
	}

	fs, err := target.Finalize()
	if err != nil {
		return nil, err
	}

	if store != nil {
		if !store.Exists(in.Logical, key) {
			if err := store.Store(in.Logical, key, fs); err != nil {
				return nil, err
			}
		}
	}
	return fs, nil
}

func (w *worker) sketchPath(path string, enc kmerenc.Encoder, target sketch.Sketch) error {
	reader, err := fastx.NewDefaultReader(path)
	if err != nil {
		return err
	}
	filterOn := w.filterActive(path)

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrap(err, path)
		}

		it, err := enc.NewIterator(record.Seq.Seq)
		if err != nil {
			if err == kmerenc.ErrShortSequence {
				continue
			}
			return errors.Wrapf(err, "seq: %s", record.Name)
		}
		for {
			h, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if filterOn && !w.cm.Admit(h, w.opts.MinCount) {
				continue
			}
			target.AddHash(h)
		}
	}
	return nil
}
