// Package ioutil provides the gzip-transparent stream helpers shared by
// the cache, matrix and pipeline packages. Adapted from
// kmcp/cmd/util-io.go's outStream/inStream: same buffering strategy and
// magic-byte gzip sniff, generalized to return io.ReadCloser/WriteCloser
// pairs instead of concrete *os.File so callers don't need to know
// whether a path is a real file, stdin/stdout, or a cache blob.
package ioutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gzip "github.com/klauspost/pgzip"
)

// BufferSize is the size of the buffered reader/writer wrapping every
// stream this package opens.
var BufferSize = 65536

// WriteCloser bundles a buffered writer with the underlying closer chain
// (gzip writer, then file) so Close() flushes and closes everything in
// the right order.
type WriteCloser struct {
	*bufio.Writer
	gz   io.WriteCloser
	file *os.File
}

func (w *WriteCloser) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			return err
		}
	}
	if w.file != os.Stdout {
		return w.file.Close()
	}
	return nil
}

// OutStream opens file for writing, creating parent directories as
// needed, and gzip-compresses the output at level when gzipped is true.
// file == "-" writes to stdout.
func OutStream(file string, gzipped bool, level int) (*WriteCloser, error) {
	var f *os.File
	if file == "-" {
		f = os.Stdout
	} else {
		dir := filepath.Dir(file)
		if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
			return nil, fmt.Errorf("cannot write file into a non-directory path: %s", dir)
		} else if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		var err error
		f, err = os.Create(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", file, err)
		}
	}

	if gzipped {
		gw, err := gzip.NewWriterLevel(f, level)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip writer for %s: %w", file, err)
		}
		return &WriteCloser{Writer: bufio.NewWriterSize(gw, BufferSize), gz: gw, file: f}, nil
	}
	return &WriteCloser{Writer: bufio.NewWriterSize(f, BufferSize), file: f}, nil
}

// ReadCloser bundles a buffered reader with the file it was opened from,
// transparently decompressing gzip content detected by magic bytes.
type ReadCloser struct {
	*bufio.Reader
	file    *os.File
	Gzipped bool
}

func (r *ReadCloser) Close() error {
	if r.file != os.Stdin {
		return r.file.Close()
	}
	return nil
}

// InStream opens file for reading. file == "-" reads from stdin.
func InStream(file string) (*ReadCloser, error) {
	var f *os.File
	if file == "-" {
		if !detectStdin() {
			return nil, errors.New("stdin not detected")
		}
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file, err)
		}
	}

	br := bufio.NewReaderSize(f, BufferSize)
	gzipped, err := isGzip(br)
	if err != nil {
		return nil, fmt.Errorf("failed to sniff %s: %w", file, err)
	}
	if gzipped {
		gr, err := gzip.NewReaderN(br, 65536, 8)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip reader for %s: %w", file, err)
		}
		br = bufio.NewReaderSize(gr, BufferSize)
	}
	return &ReadCloser{Reader: br, file: f, Gzipped: gzipped}, nil
}

func isGzip(b *bufio.Reader) (bool, error) {
	magic, err := b.Peek(2)
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return magic[0] == 0x1f && magic[1] == 0x8b, nil
}

func detectStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// IsStdout reports whether path denotes stdout, matching kmcp's
// convention of treating "-" as the console stream.
func IsStdout(path string) bool { return path == "-" }
