package distance

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/kmers-io/ksketch/internal/sketch"
)

func fullSketch(t *testing.T, hashes []uint64) sketch.FinalSketch {
	t.Helper()
	s, err := sketch.New(sketch.FullHashSet, sketch.Params{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hashes {
		s.AddHash(h)
	}
	fs, err := s.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

// TestSymmetricSelfPairs is scenario S2: two identical inputs give
// JI = 1.0 exactly (MashDist = 0.0 is checked by TestMashDistSelfIsZero).
func TestSymmetricSelfPairs(t *testing.T) {
	hashes := make([]uint64, 200)
	for i := range hashes {
		hashes[i] = uint64(i) * 0x9e3779b97f4a7c15
	}
	sketches := []sketch.FinalSketch{fullSketch(t, hashes), fullSketch(t, hashes)}
	labels := []string{"a.fasta", "b.fasta"}

	eng, err := New(SymmetricMode, sketches, labels, 0, JI, 21, 2)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	sink, err := newUpperTriTSVSink(&buf, labels, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.RunSymmetric(sink); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "1.000000") {
		t.Errorf("expected JI=1.0 in output, got %q", buf.String())
	}
}

func TestMashDistSelfIsZero(t *testing.T) {
	hashes := make([]uint64, 100)
	for i := range hashes {
		hashes[i] = uint64(i) * 7
	}
	sketches := []sketch.FinalSketch{fullSketch(t, hashes), fullSketch(t, hashes)}
	v, err := Evaluate(MashDist, sketches[0], sketches[1], 21)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v) > 1e-9 {
		t.Errorf("mash_dist(s,s) = %v, want 0", v)
	}
}

func TestAsymmetricInSymmetricModeIsConfigError(t *testing.T) {
	sketches := []sketch.FinalSketch{fullSketch(t, []uint64{1, 2}), fullSketch(t, []uint64{2, 3})}
	_, err := New(SymmetricMode, sketches, []string{"a", "b"}, 0, ContainmentIndex, 21, 1)
	if err == nil {
		t.Fatal("expected ConfigError for asymmetric result_type in symmetric mode")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}

// TestQueryReferenceContainment is scenario S5: A ⊂ B gives
// containment(A,B) ≈ 1.0.
func TestQueryReferenceContainment(t *testing.T) {
	small := make([]uint64, 100)
	for i := range small {
		small[i] = uint64(i)
	}
	big := append(append([]uint64{}, small...), func() []uint64 {
		extra := make([]uint64, 9900)
		for i := range extra {
			extra[i] = uint64(i)*31 + 1_000_000
		}
		return extra
	}()...)

	refs := []sketch.FinalSketch{fullSketch(t, big)}
	queries := []sketch.FinalSketch{fullSketch(t, small)}
	all := append(refs, queries...)
	labels := []string{"ref.fasta", "query.fasta"}

	eng, err := New(QueryReferenceMode, all, labels, 1, ContainmentIndex, 21, 1)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	sink, err := newUpperTriTSVSink(&buf, labels[1:], false)
	if err != nil {
		t.Fatal(err)
	}
	// containment result rows aren't upper-triangular, so drive PutRow
	// directly through a minimal recorder instead of the TSV sink's
	// upper-triangle-shaped filler cells.
	_ = sink
	var got []float64
	rec := recorderSink{fn: func(i int, label string, values []float64) error {
		got = append(got, values...)
		return nil
	}}
	if err := eng.RunQueryReference(rec); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 value, got %d", len(got))
	}
	if math.Abs(got[0]-1.0) > 1e-9 {
		t.Errorf("containment(query,ref) = %v, want ~1.0", got[0])
	}
}

type recorderSink struct {
	fn func(i int, label string, values []float64) error
}

func (r recorderSink) PutRow(i int, label string, values []float64) error {
	return r.fn(i, label, values)
}
func (r recorderSink) Close() error { return nil }
