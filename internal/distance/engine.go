package distance

import (
	"sync"

	"github.com/kmers-io/ksketch/internal/sketch"
)

// Mode selects symmetric all-pairs vs. rectangular query×reference
// evaluation (§4.6).
type Mode uint8

const (
	SymmetricMode Mode = iota
	QueryReferenceMode
)

// Engine computes §4.6's result matrix over a vector of finalized
// sketches. In QueryReferenceMode, Sketches holds R references followed
// by Q queries; NumRefs is R.
type Engine struct {
	Sketches   []sketch.FinalSketch
	Labels     []string
	NumRefs    int
	ResultType ResultType
	K          int
	Threads    int
}

// New validates and constructs an Engine, enforcing §9's "asymmetric
// containment safety": an asymmetric result type outside query/reference
// mode is a ConfigError at construction time rather than a silent
// misresult.
func New(mode Mode, sketches []sketch.FinalSketch, labels []string, numRefs int, rt ResultType, k, threads int) (*Engine, error) {
	if mode == SymmetricMode && !rt.Symmetric() {
		return nil, &ConfigError{Reason: "asymmetric result_type " + rt.String() + " requires query/reference mode"}
	}
	if threads < 1 {
		threads = 1
	}
	e := &Engine{Sketches: sketches, Labels: labels, ResultType: rt, K: k, Threads: threads}
	if mode == QueryReferenceMode {
		e.NumRefs = numRefs
	} else {
		e.NumRefs = len(sketches)
	}
	return e, nil
}

// computeRow fills buf[0:len(cols)] with Evaluate(rt, base, sketches[cols[i]]).
func (e *Engine) computeRow(base sketch.Sketch, cols []int, buf []float64) error {
	type job struct {
		pos int
		col int
	}
	jobs := make(chan job, len(cols))
	for i, c := range cols {
		jobs <- job{pos: i, col: c}
	}
	close(jobs)

	var wg sync.WaitGroup
	errs := make([]error, len(cols))
	threads := e.Threads
	if threads > len(cols) {
		threads = len(cols)
	}
	if threads < 1 {
		threads = 1
	}
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				v, err := Evaluate(e.ResultType, base, e.Sketches[j.col], e.K)
				if err != nil {
					errs[j.pos] = err
					continue
				}
				buf[j.pos] = v
			}
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// RunSymmetric computes the strict upper triangle (§4.6 "Symmetric
// mode") and streams it to sink row by row via a two-slot double buffer
// so row i's write overlaps row i+1's computation.
func (e *Engine) RunSymmetric(sink RowSink) error {
	n := len(e.Sketches)
	pp := newPingPong()

	type msg struct {
		i    int
		buf  []float64
		slot int
	}
	rowCh := make(chan msg, 1)
	errCh := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for m := range rowCh {
			if err := sink.PutRow(m.i, e.Labels[m.i], m.buf); err != nil {
				select {
				case errCh <- err:
				default:
				}
			}
			pp.Release(m.slot)
		}
	}()

	var runErr error
	for i := 0; i < n; i++ {
		select {
		case runErr = <-errCh:
		default:
		}
		if runErr != nil {
			break
		}

		width := n - i - 1
		slot := i % 2
		buf := pp.Acquire(slot, width)
		cols := make([]int, width)
		for k := 0; k < width; k++ {
			cols[k] = i + 1 + k
		}
		if err := e.computeRow(e.Sketches[i], cols, buf); err != nil {
			pp.Release(slot)
			runErr = err
			break
		}
		// row i's sketch is not needed again once its row is computed.
		e.Sketches[i] = nil
		rowCh <- msg{i: i, buf: buf, slot: slot}
	}
	close(rowCh)
	<-done

	select {
	case err := <-errCh:
		if runErr == nil {
			runErr = err
		}
	default:
	}
	if runErr != nil {
		return runErr
	}
	return sink.Close()
}

// RunQueryReference computes the Q×R rectangular block (§4.6 "Query/
// reference mode"): row q holds Evaluate(rt, query_q, reference_r, k) for
// every reference r, streamed to sink via the same two-slot double
// buffer and writer-goroutine hand-off as RunSymmetric, so row q's
// write overlaps row q+1's computation.
func (e *Engine) RunQueryReference(sink RowSink) error {
	refs := e.Sketches[:e.NumRefs]
	queries := e.Sketches[e.NumRefs:]
	refCols := make([]int, len(refs))
	for i := range refCols {
		refCols[i] = i
	}

	pp := newPingPong()

	type msg struct {
		q    int
		buf  []float64
		slot int
	}
	rowCh := make(chan msg, 1)
	errCh := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for m := range rowCh {
			if err := sink.PutRow(m.q, e.Labels[e.NumRefs+m.q], m.buf); err != nil {
				select {
				case errCh <- err:
				default:
				}
			}
			pp.Release(m.slot)
		}
	}()

	var runErr error
	for q, query := range queries {
		select {
		case runErr = <-errCh:
		default:
		}
		if runErr != nil {
			break
		}

		slot := q % 2
		buf := pp.Acquire(slot, len(refs))
		if err := e.computeRow(query, refCols, buf); err != nil {
			pp.Release(slot)
			runErr = err
			break
		}
		rowCh <- msg{q: q, buf: buf, slot: slot}
	}
	close(rowCh)
	<-done

	select {
	case err := <-errCh:
		if runErr == nil {
			runErr = err
		}
	default:
	}
	if runErr != nil {
		return runErr
	}
	return sink.Close()
}
