package matrix

import (
	"bytes"
	"math"
	"testing"
)

// TestBinaryRoundTrip is scenario S6's binary half: N=4, upper-triangular
// values round-trip through the binary format within 1e-6 after f32
// conversion.
func TestBinaryRoundTrip(t *testing.T) {
	n := uint64(4)
	rows := [][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.5},
		{0.6},
		{},
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf, Float32, n); err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if err := WriteRow(&buf, Float32, row); err != nil {
			t.Fatal(err)
		}
	}

	width, gotN, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if width != Float32 || gotN != n {
		t.Fatalf("header mismatch: width=%v n=%d", width, gotN)
	}
	got, err := ReadAll(&buf, width, gotN)
	if err != nil {
		t.Fatal(err)
	}
	for i := range rows {
		if len(got[i]) != len(rows[i]) {
			t.Fatalf("row %d length mismatch: got %d want %d", i, len(got[i]), len(rows[i]))
		}
		for j := range rows[i] {
			if math.Abs(got[i][j]-rows[i][j]) > 1e-6 {
				t.Errorf("row %d[%d] = %v, want %v", i, j, got[i][j], rows[i][j])
			}
		}
	}
}

func TestFloat64RoundTripIsExact(t *testing.T) {
	var buf bytes.Buffer
	values := []float64{0.123456789012345, 1.0, 0.0}
	if err := WriteHeader(&buf, Float64, 1); err != nil {
		t.Fatal(err)
	}
	if err := WriteRow(&buf, Float64, values); err != nil {
		t.Fatal(err)
	}
	width, _, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReadRow(&buf, width, len(values))
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("value %d = %v, want exact %v", i, got[i], values[i])
		}
	}
}

func TestLabelsRoundTrip(t *testing.T) {
	labels := []string{"genomeA.fasta", "genomeB.fasta", "genomeC.fasta", "genomeD.fasta"}
	var buf bytes.Buffer
	if err := WriteLabels(&buf, labels); err != nil {
		t.Fatal(err)
	}
	got, err := ReadLabels(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(labels) {
		t.Fatalf("got %d labels, want %d", len(got), len(labels))
	}
	for i := range labels {
		if got[i] != labels[i] {
			t.Errorf("label %d = %q, want %q", i, got[i], labels[i])
		}
	}
}

func TestBadMagicRejected(t *testing.T) {
	buf := bytes.NewBufferString("not a matrix file at all")
	if _, _, err := ReadHeader(buf); err == nil {
		t.Fatal("expected an error for bad magic bytes")
	}
}
