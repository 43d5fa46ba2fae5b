// Package pipeline implements the sketching pipeline capability (C5):
// parallel, per-input construction of sketches from sequence files.
// Grounded on kmcp/cmd/compute.go's fan-out (one goroutine per input,
// bounded by a token count, joined with sync.WaitGroup) and its use of
// shenwei356/bio/seqio/fastx to stream FASTA/FASTQ records.
package pipeline

import (
	"bufio"
	"os"
	"sort"

	"github.com/kmers-io/ksketch/internal/cache"
)

// Input is one logical input: a possibly FNAME_SEP-joined set of
// sub-paths treated as a single genome (§6.1), or a raw path to a
// pre-serialized sketch when PresketchedOnly is set.
type Input struct {
	Logical string   // the original positional argument or file-of-paths line
	Paths   []string // sub-paths split on FNAME_SEP
	Label   string   // the label used in output rows; defaults to Logical
}

// NewInput splits a logical input string on FNAME_SEP.
func NewInput(logical string) Input {
	return Input{Logical: logical, Paths: cache.SplitInput(logical), Label: logical}
}

// ReadFileOfPaths reads one logical input per line from path (the -F
// flag, §6.1), skipping blank lines.
func ReadFileOfPaths(path string) ([]Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var inputs []Input
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		inputs = append(inputs, NewInput(line))
	}
	return inputs, sc.Err()
}

// aggregateSize sums the sizes of an input's sub-paths, treating an
// unreadable sub-path as size 0 rather than failing the sort (the actual
// read failure is surfaced later, when the input is processed).
func aggregateSize(in Input) int64 {
	var total int64
	for _, p := range in.Paths {
		if fi, err := os.Stat(p); err == nil {
			total += fi.Size()
		}
	}
	return total
}

// SortBySize ranks inputs descending by aggregate sub-path size (§4.5
// step 1), improving dynamic-schedule load balance since the longest
// inputs then start first.
func SortBySize(inputs []Input) {
	type sized struct {
		in   Input
		size int64
	}
	rows := make([]sized, len(inputs))
	for i, in := range inputs {
		rows[i] = sized{in: in, size: aggregateSize(in)}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].size > rows[j].size })
	for i, r := range rows {
		inputs[i] = r.in
	}
}
