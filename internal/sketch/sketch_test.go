package sketch

import (
	"bytes"
	"math"
	"testing"
)

func estimateError(got, exp float64) float64 {
	var delta float64
	if got > exp {
		delta = got - exp
	} else {
		delta = exp - got
	}
	return delta / exp
}

func families() []Family {
	return []Family{HLL, BloomFilter, RangeMinHash, CountingRangeMinHash, FullHashSet, BBitMinHash, SuperMinHash, CountingBBitMinHash}
}

func defaultParams() Params {
	return Params{K: 21, W: 21, Log2Size: 10, B: 16, Canonical: true}
}

func fill(t *testing.T, s Sketch, hashes []uint64) {
	t.Helper()
	for _, h := range hashes {
		s.AddHash(h)
	}
}

func hashRange(n int, seed uint64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = mix64(uint64(i), seed)
	}
	return out
}

// TestSelfSimilarity is invariant 4 of spec.md §8: jaccard(s,s) == 1.0
// within family error bounds.
func TestSelfSimilarity(t *testing.T) {
	for _, f := range families() {
		f := f
		t.Run(f.String(), func(t *testing.T) {
			s, err := New(f, defaultParams(), 4)
			if err != nil {
				t.Fatal(err)
			}
			fill(t, s, hashRange(500, 1))
			fs, err := s.Finalize()
			if err != nil {
				t.Fatal(err)
			}
			ji, err := fs.Jaccard(fs)
			if err != nil {
				t.Fatalf("jaccard(s,s): %v", err)
			}
			if math.Abs(ji-1.0) > 0.05 {
				t.Errorf("jaccard(s,s) = %v, want ~1.0", ji)
			}
		})
	}
}

// TestUnionIdentity is invariant 2: merge(empty, s) == s == merge(s, empty).
func TestUnionIdentity(t *testing.T) {
	for _, f := range []Family{HLL, BloomFilter, RangeMinHash, FullHashSet} {
		f := f
		t.Run(f.String(), func(t *testing.T) {
			empty, _ := New(f, defaultParams(), 4)
			s, _ := New(f, defaultParams(), 4)
			fill(t, s, hashRange(200, 2))

			merged, _ := New(f, defaultParams(), 4)
			fill(t, merged, hashRange(200, 2))
			if err := merged.MergeInto(empty); err != nil {
				t.Fatalf("merge(s, empty): %v", err)
			}
			ji, err := merged.Jaccard(s)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(ji-1.0) > 0.05 {
				t.Errorf("merge(s, empty) diverged from s: jaccard = %v", ji)
			}
		})
	}
}

// TestUnionCommutativity is invariant 3.
func TestUnionCommutativity(t *testing.T) {
	for _, f := range []Family{HLL, BloomFilter, RangeMinHash, FullHashSet} {
		f := f
		t.Run(f.String(), func(t *testing.T) {
			a1, _ := New(f, defaultParams(), 4)
			fill(t, a1, hashRange(300, 3))
			b1, _ := New(f, defaultParams(), 4)
			fill(t, b1, hashRange(300, 4))

			ab, _ := New(f, defaultParams(), 4)
			fill(t, ab, hashRange(300, 3))
			if err := ab.MergeInto(b1); err != nil {
				t.Fatal(err)
			}

			ba, _ := New(f, defaultParams(), 4)
			fill(t, ba, hashRange(300, 4))
			if err := ba.MergeInto(a1); err != nil {
				t.Fatal(err)
			}

			ji, err := ab.Jaccard(ba)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(ji-1.0) > 0.05 {
				t.Errorf("merge(a,b) vs merge(b,a): jaccard = %v", ji)
			}
		})
	}
}

// TestSerializationRoundTrip is invariant 1.
func TestSerializationRoundTrip(t *testing.T) {
	for _, f := range families() {
		f := f
		t.Run(f.String(), func(t *testing.T) {
			s, _ := New(f, defaultParams(), 4)
			fill(t, s, hashRange(400, 5))
			fs, err := s.Finalize()
			if err != nil {
				t.Fatal(err)
			}

			var buf bytes.Buffer
			if err := fs.Serialize(&buf); err != nil {
				t.Fatal(err)
			}

			back, err := Deserialize(f, &buf, defaultParams())
			if err != nil {
				t.Fatal(err)
			}

			ji, err := fs.Jaccard(back)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(ji-1.0) > 1e-9 {
				t.Errorf("round-tripped sketch diverged: jaccard = %v, want 1.0", ji)
			}
		})
	}
}

// TestBloomContainmentUnsupported checks §7's example: containment is
// Unsupported on plain Bloom filters.
func TestBloomContainmentUnsupported(t *testing.T) {
	a, _ := New(BloomFilter, defaultParams(), 4)
	b, _ := New(BloomFilter, defaultParams(), 4)
	_, err := a.Containment(b)
	if err == nil {
		t.Fatal("expected Unsupported error for Bloom containment")
	}
	if _, ok := err.(*UnsupportedError); !ok {
		t.Fatalf("expected *UnsupportedError, got %T", err)
	}
}

// TestContainmentAsymmetry is scenario S5: A ⊂ B should give
// containment(A,B) near 1 and containment(B,A) near |A|/|B|.
func TestContainmentAsymmetry(t *testing.T) {
	small := hashRange(100, 42)
	big := append(append([]uint64{}, small...), hashRange(9900, 99)...)

	a, _ := New(FullHashSet, defaultParams(), 4)
	fill(t, a, small)
	b, _ := New(FullHashSet, defaultParams(), 4)
	fill(t, b, big)

	cAB, err := a.Containment(b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cAB-1.0) > 1e-9 {
		t.Errorf("containment(A,B) = %v, want ~1.0", cAB)
	}

	cBA, err := b.Containment(a)
	if err != nil {
		t.Fatal(err)
	}
	if estimateError(cBA, 0.01) > 0.5 {
		t.Errorf("containment(B,A) = %v, want ~0.01", cBA)
	}
}
