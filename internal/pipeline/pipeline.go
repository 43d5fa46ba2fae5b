package pipeline

import (
	"sync"

	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"

	"github.com/kmers-io/ksketch/internal/sketch"
)

// Slot pairs one input with its finalized sketch, filled in by Run.
type Slot struct {
	Input  Input
	Sketch sketch.FinalSketch
}

// Run executes §4.5's sketching pipeline over inputs with the given
// concurrency, returning one finalized sketch per input. Slots follow the
// order of inputs after the optional SortBySize pass, which reorders the
// caller's inputs slice in place.
// A dynamic chunk-size-1 schedule is realized with a bounded worker
// pool draining a shared channel of indices, grounded on
// kmcp/cmd/compute.go's per-file goroutine + token-bounded fan-out
// (there via a ringbuffer token queue; here via a buffered channel
// semaphore, which plays the same role without an extra dependency kmcp
// itself does not declare in its go.mod for this purpose).
func Run(opts *Options, inputs []Input, threads int, progress bool) ([]*Slot, error) {
	if opts.SortBySize {
		SortBySize(inputs)
	}

	slots := make([]*Slot, len(inputs))
	for i := range slots {
		slots[i] = &Slot{Input: inputs[i]}
	}

	var bar *mpb.Bar
	var pbs *mpb.Progress
	if progress {
		pbs = mpb.New(mpb.WithWidth(64))
		bar = pbs.AddBar(int64(len(inputs)),
			mpb.PrependDecorators(
				decor.Name("sketching "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	jobs := make(chan int, len(inputs))
	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []*InputError

	if threads < 1 {
		threads = 1
	}
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w := newWorker(opts, workerID)
			for idx := range jobs {
				fs, err := w.Build(inputs[idx])
				if err != nil {
					mu.Lock()
					if ie, ok := err.(*InputError); ok {
						failures = append(failures, ie)
					} else {
						failures = append(failures, &InputError{Path: inputs[idx].Logical, Cause: err})
					}
					mu.Unlock()
				} else {
					slots[idx].Sketch = fs
				}
				if bar != nil {
					bar.Increment()
				}
			}
		}(t)
	}
	wg.Wait()

	if pbs != nil {
		pbs.Wait()
	}

	if len(failures) > 0 {
		return nil, &RunError{Failures: failures}
	}
	return slots, nil
}
