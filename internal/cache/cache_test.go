package cache

import (
	"math"
	"os"
	"testing"

	"github.com/kmers-io/ksketch/internal/kmerenc"
	"github.com/kmers-io/ksketch/internal/sketch"
)

func testKey() Key {
	return Key{
		Family:    sketch.HLL,
		Encoding:  kmerenc.Exact,
		K:         21,
		W:         21,
		Log2Size:  10,
		Canonical: true,
	}
}

func testParams() sketch.Params {
	return sketch.Params{K: 21, W: 21, Log2Size: 10, Canonical: true}
}

// TestCacheEquivalence is invariant 6 of spec.md §8: a sketch loaded
// from cache is indistinguishable (by Jaccard) from the freshly computed
// sketch that produced it.
func TestCacheEquivalence(t *testing.T) {
	dir := t.TempDir()
	store := &Store{Dir: dir}

	s, err := sketch.New(sketch.HLL, testParams(), 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 500; i++ {
		s.AddHash(i * 0x9e3779b97f4a7c15)
	}
	fs, err := s.Finalize()
	if err != nil {
		t.Fatal(err)
	}

	key := testKey()
	if err := store.Store("sample.fasta", key, fs); err != nil {
		t.Fatal(err)
	}
	if !store.Exists("sample.fasta", key) {
		t.Fatal("expected cache entry to exist after Store")
	}

	loaded, ok, err := store.Load("sample.fasta", key, testParams())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}

	ji, err := fs.Jaccard(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ji-1.0) > 1e-9 {
		t.Errorf("cached sketch diverged from source: jaccard = %v", ji)
	}
}

func TestCacheMiss(t *testing.T) {
	store := &Store{Dir: t.TempDir()}
	_, ok, err := store.Load("nope.fasta", testKey(), testParams())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected a clean miss for a nonexistent entry")
	}
}

func TestCorruptEntryIsHardFailure(t *testing.T) {
	dir := t.TempDir()
	store := &Store{Dir: dir}
	key := testKey()
	path := PathFor(dir, "bad.fasta", key)
	if err := os.WriteFile(path, []byte("not a sketch"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := store.Load("bad.fasta", key, testParams())
	if err == nil {
		t.Fatal("expected corrupt cache entry to error, not silently miss")
	}
	if _, ok := err.(*sketch.CacheCorruptionError); !ok {
		t.Fatalf("expected *sketch.CacheCorruptionError, got %T", err)
	}
}

func TestDistinctParamsDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	a := testKey()
	b := testKey()
	b.K = 25
	if PathFor(dir, "x.fasta", a) == PathFor(dir, "x.fasta", b) {
		t.Error("expected distinct k to produce distinct cache paths")
	}
}
