package distance

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/kmers-io/ksketch/internal/matrix"
)

// EmitFormat is the emission-format tag of §3/§4.6.
type EmitFormat uint8

const (
	UpperTriTSV EmitFormat = iota
	PhylipUpperTri
	FullTSV
	Binary
)

// RowSink receives one computed row at a time, in row order, from a
// single writer goroutine (§4.6's "at most one outstanding write per
// output file"). PutRow must not be called concurrently.
type RowSink interface {
	PutRow(i int, label string, values []float64) error
	Close() error
}

// SinkConfig groups the parameters NewSink needs to build any of the
// four emission formats behind one call.
type SinkConfig struct {
	Format     EmitFormat
	Labels     []string
	Scientific bool
	// N is the full matrix dimension (symmetric mode: len(Labels);
	// query/reference mode: number of reference columns), needed by
	// Binary's header and FullTSV's square accumulator.
	N int
	// Width selects the on-disk float precision for Binary output.
	Width matrix.FloatWidth
	// Diag supplies the diagonal value for FullTSV (e.g. 1.0 for JI,
	// 0.0 for MashDist); ignored by the other formats.
	Diag func(i int) float64
}

// NewSink builds the RowSink named by cfg.Format (§4.6/§6.3).
func NewSink(w io.Writer, cfg SinkConfig) (RowSink, error) {
	switch cfg.Format {
	case UpperTriTSV:
		return newUpperTriTSVSink(w, cfg.Labels, cfg.Scientific)
	case PhylipUpperTri:
		return newPhylipSink(w, cfg.N, cfg.Scientific)
	case FullTSV:
		diag := cfg.Diag
		if diag == nil {
			diag = func(int) float64 { return 0 }
		}
		return newFullTSVSink(w, cfg.Labels, cfg.Scientific, diag), nil
	case Binary:
		return newBinarySink(w, uint64(cfg.N), cfg.Width)
	default:
		return nil, &ConfigError{Reason: "unknown emit format"}
	}
}

// pingPong is the two-slot producer/consumer row buffer of §4.6/§9: the
// caller fills one of two reusable []float64 buffers and hands it to the
// writer; the writer must finish with buffer b before the caller reuses
// it for row i+2.
type pingPong struct {
	bufs [2]([]float64)
	mu   sync.Mutex
	busy [2]bool
	cond *sync.Cond
}

func newPingPong() *pingPong {
	p := &pingPong{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Acquire blocks until buffer slot b is free, then returns a []float64
// of length n backed by that slot for the caller to fill.
func (p *pingPong) Acquire(b, n int) []float64 {
	p.mu.Lock()
	for p.busy[b] {
		p.cond.Wait()
	}
	if cap(p.bufs[b]) < n {
		p.bufs[b] = make([]float64, n)
	}
	p.busy[b] = true
	buf := p.bufs[b][:n]
	p.mu.Unlock()
	return buf
}

// Release marks buffer slot b free for reuse, waking any waiter.
func (p *pingPong) Release(b int) {
	p.mu.Lock()
	p.busy[b] = false
	p.cond.Broadcast()
	p.mu.Unlock()
}

// upperTriTSVSink writes §4.6's upper-triangular TSV: each row begins
// with the input label, then (i+1) "\t-" filler cells, then the numeric
// cells.
type upperTriTSVSink struct {
	w          *bufio.Writer
	format     string
	underlying io.Closer
}

func newUpperTriTSVSink(w io.Writer, labels []string, scientific bool) (*upperTriTSVSink, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("##Names\t" + joinTab(labels) + "\n"); err != nil {
		return nil, err
	}
	format := "%f"
	if scientific {
		format = "%e"
	}
	return &upperTriTSVSink{w: bw, format: format}, nil
}

func joinTab(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += "\t"
		}
		out += s
	}
	return out
}

func (s *upperTriTSVSink) PutRow(i int, label string, values []float64) error {
	if _, err := s.w.WriteString(label); err != nil {
		return err
	}
	for j := 0; j <= i; j++ {
		if _, err := s.w.WriteString("\t-"); err != nil {
			return err
		}
	}
	for _, v := range values {
		if _, err := fmt.Fprintf(s.w, "\t"+s.format, v); err != nil {
			return err
		}
	}
	_, err := s.w.WriteString("\n")
	return err
}

func (s *upperTriTSVSink) Close() error { return s.w.Flush() }

// phylipSink writes §4.6's PHYLIP upper triangle: an N header line, then
// each row begins with a fixed-width padded label.
type phylipSink struct {
	w      *bufio.Writer
	format string
}

func newPhylipSink(w io.Writer, n int, scientific bool) (*phylipSink, error) {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", n); err != nil {
		return nil, err
	}
	format := "%f"
	if scientific {
		format = "%e"
	}
	return &phylipSink{w: bw, format: format}, nil
}

func (s *phylipSink) PutRow(i int, label string, values []float64) error {
	if _, err := fmt.Fprintf(s.w, "%-10s", label); err != nil {
		return err
	}
	for j := 0; j <= i; j++ {
		if _, err := s.w.WriteString("\t-"); err != nil {
			return err
		}
	}
	for _, v := range values {
		if _, err := fmt.Fprintf(s.w, "\t"+s.format, v); err != nil {
			return err
		}
	}
	_, err := s.w.WriteString("\n")
	return err
}

func (s *phylipSink) Close() error { return s.w.Flush() }

// binarySink writes §6.3's binary layout, delegating the byte-level
// encoding to the matrix package so C6's stream and C7's standalone
// reader agree on one format.
type binarySink struct {
	w     io.Writer
	width matrix.FloatWidth
}

func newBinarySink(w io.Writer, n uint64, width matrix.FloatWidth) (*binarySink, error) {
	if err := matrix.WriteHeader(w, width, n); err != nil {
		return nil, err
	}
	return &binarySink{w: w, width: width}, nil
}

func (s *binarySink) PutRow(i int, label string, values []float64) error {
	return matrix.WriteRow(s.w, s.width, values)
}

func (s *binarySink) Close() error { return nil }

// fullTSVSink accumulates the whole matrix (mirroring computed
// upper-triangle values below the diagonal) and writes it only once
// every row has arrived, since a full square matrix isn't streamable
// from upper-triangular row order alone.
type fullTSVSink struct {
	w      io.Writer
	labels []string
	format string
	rt     ResultType
	k      int
	full   [][]float64
	diag   func(i int) float64
}

func newFullTSVSink(w io.Writer, labels []string, scientific bool, diag func(i int) float64) *fullTSVSink {
	format := "%f"
	if scientific {
		format = "%e"
	}
	n := len(labels)
	full := make([][]float64, n)
	for i := range full {
		full[i] = make([]float64, n)
	}
	return &fullTSVSink{w: w, labels: labels, format: format, full: full, diag: diag}
}

func (s *fullTSVSink) PutRow(i int, label string, values []float64) error {
	for k, v := range values {
		j := i + 1 + k
		s.full[i][j] = v
		s.full[j][i] = v
	}
	s.full[i][i] = s.diag(i)
	return nil
}

func (s *fullTSVSink) Close() error {
	bw := bufio.NewWriter(s.w)
	if _, err := bw.WriteString("##Names\t" + joinTab(s.labels) + "\n"); err != nil {
		return err
	}
	for i, label := range s.labels {
		if _, err := bw.WriteString(label); err != nil {
			return err
		}
		for _, v := range s.full[i] {
			if _, err := fmt.Fprintf(bw, "\t"+s.format, v); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
