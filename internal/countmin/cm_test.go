package countmin

import "testing"

// TestMonotonicity is invariant 8 of spec.md §8: repeated Bump calls on
// the same hash never decrease the estimate, and the estimate never falls
// below the true occurrence count (Count-Min's one-sided error).
func TestMonotonicity(t *testing.T) {
	cm := New(4, 1<<10, Seed(0, 42))
	h := uint64(0xdeadbeefcafef00d)

	var last uint16
	for i := 0; i < 20; i++ {
		got := cm.Bump(h)
		if got < last {
			t.Fatalf("estimate decreased: %d -> %d at iteration %d", last, got, i)
		}
		if uint64(got) < uint64(i+1) {
			t.Fatalf("estimate undercounted true occurrences: got %d, want >= %d", got, i+1)
		}
		last = got
	}
}

func TestAdmitThreshold(t *testing.T) {
	cm := New(4, 1<<10, Seed(1, 42))
	h := uint64(123456789)

	if cm.Admit(h, 3) {
		t.Fatal("admitted after first observation with min_count=3")
	}
	if cm.Admit(h, 3) {
		t.Fatal("admitted after second observation with min_count=3")
	}
	if !cm.Admit(h, 3) {
		t.Fatal("expected admission on third observation with min_count=3")
	}
}

func TestClearResetsCounters(t *testing.T) {
	cm := New(2, 1<<8, Seed(0, 1))
	h := uint64(7)
	cm.Bump(h)
	cm.Bump(h)
	if cm.Estimate(h) == 0 {
		t.Fatal("expected non-zero estimate before Clear")
	}
	cm.Clear()
	if got := cm.Estimate(h); got != 0 {
		t.Fatalf("expected zero estimate after Clear, got %d", got)
	}
}

func TestSeedDependsOnThreadAndRun(t *testing.T) {
	a := Seed(0, 42)
	b := Seed(1, 42)
	if a == b {
		t.Error("expected distinct seeds for distinct thread indices")
	}
	c := Seed(0, 43)
	if a == c {
		t.Error("expected distinct seeds for distinct run seeds")
	}
}
