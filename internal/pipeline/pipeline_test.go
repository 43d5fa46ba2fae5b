package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kmers-io/ksketch/internal/kmerenc"
	"github.com/kmers-io/ksketch/internal/sketch"
)

func writeFasta(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions() *Options {
	return &Options{
		Family:       sketch.HLL,
		SketchNHash:  4,
		SketchParam:  sketch.Params{K: 15, W: 15, Log2Size: 10, Canonical: true},
		Encoding:     kmerenc.Exact,
		EncoderParam: kmerenc.Params{K: 15, W: 15, Canonical: true},
		Filtering:    NoFilter,
		SortBySize:   true,
	}
}

const genomeA = `>chrA
ACGTTGCATGCATGCACGTAGGCTAGCTAGCATCGACGTTGCATGCATGCACGTAGGCTAGCTAGCATCG
`

const genomeB = `>chrB
TTTTAAAACCCCGGGGTTTTAAAACCCCGGGGTTTTAAAACCCCGGGGTTTTAAAACCCCGGGG
`

func TestRunProducesOneSketchPerInput(t *testing.T) {
	dir := t.TempDir()
	pathA := writeFasta(t, dir, "a.fasta", genomeA)
	pathB := writeFasta(t, dir, "b.fasta", genomeB)

	inputs := []Input{NewInput(pathA), NewInput(pathB)}
	slots, err := Run(testOptions(), inputs, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	for i, s := range slots {
		if s.Sketch == nil {
			t.Errorf("slot %d has no sketch", i)
		}
	}
}

func TestRunOrderMatchesInputOrder(t *testing.T) {
	dir := t.TempDir()
	pathA := writeFasta(t, dir, "a.fasta", genomeA)
	pathB := writeFasta(t, dir, "b.fasta", genomeB)

	inputs := []Input{NewInput(pathA), NewInput(pathB)}
	slots, err := Run(testOptions(), inputs, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	if slots[0].Input.Logical != pathA || slots[1].Input.Logical != pathB {
		t.Errorf("slot order diverged from input order: got %s, %s", slots[0].Input.Logical, slots[1].Input.Logical)
	}
}

func TestRunFailsOnMissingInput(t *testing.T) {
	inputs := []Input{NewInput("/nonexistent/path/does-not-exist.fasta")}
	_, err := Run(testOptions(), inputs, 1, false)
	if err == nil {
		t.Fatal("expected an error for an unreadable input")
	}
	if _, ok := err.(*RunError); !ok {
		t.Fatalf("expected *RunError, got %T", err)
	}
}

func TestCacheRoundTripThroughPipeline(t *testing.T) {
	dir := t.TempDir()
	cacheDir := t.TempDir()
	pathA := writeFasta(t, dir, "a.fasta", genomeA)

	opts := testOptions()
	opts.CacheSketches = true
	opts.CacheDir = cacheDir

	inputs := []Input{NewInput(pathA)}
	first, err := Run(opts, inputs, 1, false)
	if err != nil {
		t.Fatal(err)
	}

	second, err := Run(opts, inputs, 1, false)
	if err != nil {
		t.Fatal(err)
	}

	ji, err := first[0].Sketch.Jaccard(second[0].Sketch)
	if err != nil {
		t.Fatal(err)
	}
	if ji < 0.999 {
		t.Errorf("cached run diverged from fresh run: jaccard = %v", ji)
	}
}
