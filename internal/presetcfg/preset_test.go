package presetcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAndLookup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	content := `
fast:
  k: 21
  log2_sketch_size: 12
  sketch_family: HLL
  canonical: true
precise:
  k: 31
  sketch_family: FullHashSet
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fast, ok := f.Lookup("fast")
	if !ok {
		t.Fatal("expected preset \"fast\" to be present")
	}
	if fast.K != 21 || fast.Log2Size != 12 || fast.SketchFamily != "HLL" {
		t.Errorf("unexpected fast preset: %+v", fast)
	}
	if fast.Canonical == nil || !*fast.Canonical {
		t.Errorf("expected canonical=true, got %+v", fast.Canonical)
	}

	if _, ok := f.Lookup("missing"); ok {
		t.Error("expected missing preset to be absent")
	}
}
