package cache

import (
	"os"

	"github.com/kmers-io/ksketch/internal/ioutil"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// Store mediates load-if-present/write-on-miss access to sketch cache
// entries under Dir.
type Store struct {
	Dir      string
	Compress bool
	Level    int
}

// Load returns the cached sketch for key/inputBase if present, or
// (nil, false, nil) on a clean miss. A corrupt cache entry is reported
// as an error rather than silently treated as a miss, matching §4.4's
// "corrupt cache entries are a hard failure, not a fallback trigger".
func (s *Store) Load(inputBase string, key Key, params sketch.Params) (sketch.Sketch, bool, error) {
	path := PathFor(s.Dir, inputBase, key)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	rc, err := ioutil.InStream(path)
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()

	sk, err := sketch.Deserialize(key.Family, rc, params)
	if err != nil {
		return nil, false, &sketch.CacheCorruptionError{Path: path, Reason: err.Error()}
	}
	return sk, true, nil
}

// Store writes sk to the cache entry for key/inputBase, replacing any
// existing entry.
func (s *Store) Store(inputBase string, key Key, sk sketch.FinalSketch) error {
	path := PathFor(s.Dir, inputBase, key)
	wc, err := ioutil.OutStream(path, s.Compress, s.Level)
	if err != nil {
		return err
	}
	if err := sk.Serialize(wc); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

// Exists reports whether a cache entry for key/inputBase is present,
// without reading or validating its contents.
func (s *Store) Exists(inputBase string, key Key) bool {
	path := PathFor(s.Dir, inputBase, key)
	_, err := os.Stat(path)
	return err == nil
}
