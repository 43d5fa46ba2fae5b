package cmd

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/iafan/cwalk"
	"github.com/spf13/cobra"

	"github.com/kmers-io/ksketch/internal/pipeline"
)

// gatherInputs turns a subcommand's positional args and -F/--infile-list
// flag into one ordered []pipeline.Input, per §6.1. An arg that names a
// directory is expanded into one Input per regular file found under it
// (sorted for determinism), rather than being treated as a literal
// (and unreadable) sequence path.
func gatherInputs(cmd *cobra.Command, args []string) []pipeline.Input {
	inputs := make([]pipeline.Input, 0, len(args))
	for _, a := range args {
		if fi, err := os.Stat(a); err == nil && fi.IsDir() {
			for _, p := range walkDir(a) {
				inputs = append(inputs, pipeline.NewInput(p))
			}
			continue
		}
		inputs = append(inputs, pipeline.NewInput(a))
	}
	if listFile := getFlagString(cmd, "infile-list"); listFile != "" {
		fromFile, err := pipeline.ReadFileOfPaths(listFile)
		checkError(err)
		inputs = append(inputs, fromFile...)
	}
	return inputs
}

// walkDir lists every regular file under dir using cwalk's
// parallel-goroutine directory walker, which amortizes the syscall
// latency of stat-ing each entry across multiple workers instead of the
// single-goroutine filepath.Walk a prescan of a large reference
// collection would otherwise serialize on.
func walkDir(dir string) []string {
	var mu sync.Mutex
	var paths []string
	err := cwalk.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		mu.Lock()
		paths = append(paths, filepath.Join(dir, path))
		mu.Unlock()
		return nil
	})
	checkError(err)
	sort.Strings(paths)
	return paths
}
