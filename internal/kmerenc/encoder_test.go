package kmerenc

import "testing"

func drain(t *testing.T, it Iterator) []uint64 {
	t.Helper()
	var out []uint64
	for {
		h, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			return out
		}
		out = append(out, h)
	}
}

func TestExactEncoderCount(t *testing.T) {
	seq := []byte("ACGTACGTACGTNNNACGTACGT")
	enc, err := New(Exact, Params{K: 4, Canonical: true})
	if err != nil {
		t.Fatal(err)
	}
	it, err := enc.NewIterator(seq)
	if err != nil {
		t.Fatal(err)
	}
	hashes := drain(t, it)
	// 20 total 4-mer windows; the 3 N's disqualify the 6 windows that
	// overlap them, so fewer than 20 windows survive: the 12-base left
	// flank gives 9 and the 8-base right flank gives 5.
	if len(hashes) == 0 {
		t.Fatal("expected at least some admitted k-mers")
	}
	if len(hashes) >= 20 {
		t.Errorf("expected ambiguous-base windows to be dropped, got %d/20", len(hashes))
	}
}

// TestEncoderEquivalence is invariant 7: on a sequence with no ambiguous
// bases, exact and cyclic encoders admit the same number of k-mers at
// the same positions, even though their hash values differ.
func TestEncoderEquivalence(t *testing.T) {
	seq := []byte("ACGTTGCATGCATGCACGTAGGCTAGCTAGCATCG")
	k := 15

	exact, err := New(Exact, Params{K: k, Canonical: true})
	if err != nil {
		t.Fatal(err)
	}
	cyclic, err := New(Cyclic, Params{K: k, Canonical: true})
	if err != nil {
		t.Fatal(err)
	}

	itE, err := exact.NewIterator(seq)
	if err != nil {
		t.Fatal(err)
	}
	itC, err := cyclic.NewIterator(seq)
	if err != nil {
		t.Fatal(err)
	}

	hE := drain(t, itE)
	hC := drain(t, itC)
	if len(hE) != len(hC) {
		t.Fatalf("admitted k-mer counts diverged: exact=%d cyclic=%d", len(hE), len(hC))
	}
	want := len(seq) - k + 1
	if len(hE) != want {
		t.Errorf("expected %d admitted k-mers, got %d", want, len(hE))
	}
}

func TestExactCanonicalization(t *testing.T) {
	fwd := []byte("ACGTACGTA")
	rev := []byte("TACGTACGT") // reverse complement of fwd
	enc, err := New(Exact, Params{K: 9, Canonical: true})
	if err != nil {
		t.Fatal(err)
	}

	itF, _ := enc.NewIterator(fwd)
	itR, _ := enc.NewIterator(rev)
	hF := drain(t, itF)
	hR := drain(t, itR)
	if len(hF) != 1 || len(hR) != 1 {
		t.Fatalf("expected exactly one k-mer each, got %d and %d", len(hF), len(hR))
	}
	if hF[0] != hR[0] {
		t.Errorf("canonical hash of a sequence and its reverse complement diverged: %d != %d", hF[0], hR[0])
	}
}

func TestSpacedSeedRejectsUnanchored(t *testing.T) {
	_, err := New(Exact, Params{K: 5, Spacing: "01110"})
	if err == nil {
		t.Fatal("expected ConfigError for unanchored spacing pattern")
	}
}

func TestKTooLargeForExact(t *testing.T) {
	_, err := New(Exact, Params{K: 40})
	if err == nil {
		t.Fatal("expected ConfigError for k>32 with exact encoding")
	}
}

func TestMinimizerReducesCount(t *testing.T) {
	seq := []byte("ACGTTGCATGCATGCACGTAGGCTAGCTAGCATCGACGTTGCATGCATGCACGTAGGCTAGCTAGCATCG")
	enc, err := New(Exact, Params{K: 11, W: 5, Canonical: true})
	if err != nil {
		t.Fatal(err)
	}
	it, err := enc.NewIterator(seq)
	if err != nil {
		t.Fatal(err)
	}
	hashes := drain(t, it)
	maxPositions := len(seq) - 11 + 1
	if len(hashes) >= maxPositions {
		t.Errorf("expected minimizer selection to reduce k-mer count below %d, got %d", maxPositions, len(hashes))
	}
	if len(hashes) == 0 {
		t.Error("expected at least one minimizer")
	}
}
