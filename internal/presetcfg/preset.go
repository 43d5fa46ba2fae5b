// Package presetcfg loads named parameter bundles for the --preset flag
// (§6.5) from a YAML file, grounded on gopkg.in/yaml.v2 the way kmcp's
// taxonomy/profile commands load their supporting YAML config.
package presetcfg

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Preset is one named bundle of the config options listed in §6.5. Zero
// fields (empty string, zero int) mean "leave the flag's own default in
// place" — cmd's applyPreset only overrides what the preset actually sets.
type Preset struct {
	K            int    `yaml:"k,omitempty"`
	W            int    `yaml:"w,omitempty"`
	Spacing      string `yaml:"spacing,omitempty"`
	Log2Size     int    `yaml:"log2_sketch_size,omitempty"`
	B            int    `yaml:"b_bits,omitempty"`
	Canonical    *bool  `yaml:"canonical,omitempty"`
	SketchFamily string `yaml:"sketch_family,omitempty"`
	Encoding     string `yaml:"encoding,omitempty"`
	Weighted     *bool  `yaml:"weighted,omitempty"`
	Filtering    string `yaml:"filtering,omitempty"`
	MinCount     int    `yaml:"min_count,omitempty"`
	CMNHashes    int    `yaml:"cm_nhashes,omitempty"`
	CMLog2       int    `yaml:"cm_log2,omitempty"`
	ResultType   string `yaml:"result_type,omitempty"`
	EmitFormat   string `yaml:"emit_fmt,omitempty"`
}

// File is the top-level document: a map of preset name to Preset, mirroring
// how kmcp's taxonomy YAML config keys a map by name.
type File map[string]Preset

// Load reads and parses a preset file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// Lookup returns the named preset, or ok=false if the file has no such
// entry.
func (f File) Lookup(name string) (Preset, bool) {
	p, ok := f[name]
	return p, ok
}
