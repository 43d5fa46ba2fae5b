package orchestrator

import (
	"github.com/kmers-io/ksketch/internal/ioutil"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// RunUnion executes the union subcommand (§4.8): load N pre-sketched
// files and fold them together with MergeInto, in file order.
func RunUnion(paths []string, family sketch.Family, params sketch.Params) (sketch.FinalSketch, error) {
	if len(paths) == 0 {
		return nil, &ConfigError{Reason: "union requires at least one input sketch"}
	}

	acc, err := loadSketch(paths[0], family, params)
	if err != nil {
		return nil, err
	}
	for _, p := range paths[1:] {
		next, err := loadSketch(p, family, params)
		if err != nil {
			return nil, err
		}
		if err := acc.MergeInto(next); err != nil {
			return nil, err
		}
	}
	return acc.Finalize()
}

func loadSketch(path string, family sketch.Family, params sketch.Params) (sketch.Sketch, error) {
	rc, err := ioutil.InStream(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sk, err := sketch.Deserialize(family, rc, params)
	if err != nil {
		return nil, &sketch.CacheCorruptionError{Path: path, Reason: err.Error()}
	}
	return sk, nil
}
