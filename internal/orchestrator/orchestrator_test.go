package orchestrator

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kmers-io/ksketch/internal/distance"
	"github.com/kmers-io/ksketch/internal/kmerenc"
	"github.com/kmers-io/ksketch/internal/matrix"
	"github.com/kmers-io/ksketch/internal/pipeline"
	"github.com/kmers-io/ksketch/internal/sketch"
)

const genomeA = ">chr1\nACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT\n"
const genomeB = ">chr1\nTTTTGGGGCCCCAAAATTTTGGGGCCCCAAAATTTTGGGG\n"

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func baseOptions() *Options {
	return &Options{
		K: 15, W: 15, Log2Size: 10, Canonical: true,
		Family:      sketch.FullHashSet,
		Encoding:    kmerenc.Exact,
		Filtering:   pipeline.NoFilter,
		SortBySize:  true,
		ResultType:  distance.JI,
		EmitFormat:  distance.UpperTriTSV,
		NumThreads:  2,
	}
}

func TestRunSketchProducesSizesReport(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.fasta", genomeA)
	b := writeTemp(t, dir, "b.fasta", genomeB)

	opts := baseOptions()
	var sizes bytes.Buffer
	slots, err := RunSketch(opts, []pipeline.Input{pipeline.NewInput(a), pipeline.NewInput(b)}, &sizes)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !strings.HasPrefix(sizes.String(), "#Path\tSize (est.)\n") {
		t.Errorf("missing sizes prelude: %q", sizes.String())
	}
}

func TestRunCardinalityReportsEstimateAndExact(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.fasta", genomeA)

	opts := baseOptions()
	opts.Family = sketch.HLL
	var out bytes.Buffer
	err := RunCardinality(opts, []pipeline.Input{pipeline.NewInput(a)}, &out, true)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !strings.HasPrefix(lines[0], "#Path\tCardinality (est.)\tCardinality (exact)") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[1], a+"\t") {
		t.Fatalf("unexpected report body: %v", lines)
	}
}

func TestRunDistSymmetricSelfJaccard(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.fasta", genomeA)
	b := writeTemp(t, dir, "b.fasta", genomeA)

	opts := baseOptions()
	var matrixOut bytes.Buffer
	inputs := []pipeline.Input{pipeline.NewInput(a), pipeline.NewInput(b)}
	if err := RunDist(opts, inputs, nil, nil, &matrixOut, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(matrixOut.String(), "1.000000") {
		t.Errorf("expected JI=1.0 for identical inputs, got %q", matrixOut.String())
	}
}

func TestRunDistBinaryWritesLabelsSidecar(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.fasta", genomeA)
	b := writeTemp(t, dir, "b.fasta", genomeB)

	opts := baseOptions()
	opts.EmitFormat = distance.Binary
	var matrixOut, labelsOut bytes.Buffer
	inputs := []pipeline.Input{pipeline.NewInput(a), pipeline.NewInput(b)}
	if err := RunDist(opts, inputs, nil, nil, &matrixOut, &labelsOut); err != nil {
		t.Fatal(err)
	}
	if labelsOut.Len() == 0 {
		t.Fatal("expected non-empty labels sidecar for Binary emit format")
	}
	labels, err := matrix.ReadLabels(&labelsOut)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 2 || labels[0] != a || labels[1] != b {
		t.Errorf("got labels %v, want [%s %s]", labels, a, b)
	}
}

func TestRunDistAsymmetricWithoutQueriesIsConfigError(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.fasta", genomeA)
	opts := baseOptions()
	opts.ResultType = distance.ContainmentIndex
	var out bytes.Buffer
	err := RunDist(opts, []pipeline.Input{pipeline.NewInput(a)}, nil, nil, &out, nil)
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
	}
}

func TestRunUnionMergesSketches(t *testing.T) {
	dir := t.TempDir()
	params := sketch.Params{Log2Size: 10}
	// AddHash takes already-hashed values: spread 1, 2, 3 over the 64-bit
	// range so they fall into distinct registers.
	spread := func(i uint64) uint64 { return i * 0x9e3779b97f4a7c15 }
	s1 := sketch.NewHLL(params)
	s1.AddHash(spread(1))
	s1.AddHash(spread(2))
	s2 := sketch.NewHLL(params)
	s2.AddHash(spread(2))
	s2.AddHash(spread(3))

	p1 := filepath.Join(dir, "s1.hll")
	p2 := filepath.Join(dir, "s2.hll")
	f1, err := os.Create(p1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Serialize(f1); err != nil {
		t.Fatal(err)
	}
	f1.Close()
	f2, err := os.Create(p2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s2.Serialize(f2); err != nil {
		t.Fatal(err)
	}
	f2.Close()

	merged, err := RunUnion([]string{p1, p2}, sketch.HLL, params)
	if err != nil {
		t.Fatal(err)
	}
	if merged.CardinalityEstimate() < 2 {
		t.Errorf("union cardinality too low: %v", merged.CardinalityEstimate())
	}
}

func TestRunPrintMatRoundTrip(t *testing.T) {
	var matBuf, labelBuf bytes.Buffer
	if err := matrix.WriteHeader(&matBuf, matrix.Float64, 3); err != nil {
		t.Fatal(err)
	}
	if err := matrix.WriteRow(&matBuf, matrix.Float64, []float64{0.1, 0.2}); err != nil {
		t.Fatal(err)
	}
	if err := matrix.WriteRow(&matBuf, matrix.Float64, []float64{0.3}); err != nil {
		t.Fatal(err)
	}
	if err := matrix.WriteRow(&matBuf, matrix.Float64, []float64{}); err != nil {
		t.Fatal(err)
	}
	if err := matrix.WriteLabels(&labelBuf, []string{"x", "y", "z"}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := RunPrintMat(&matBuf, &labelBuf, &out, false); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Error("expected non-empty pretty-printed table")
	}
}
