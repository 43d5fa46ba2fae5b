// Package matrix implements the Matrix I/O capability (C7): binary
// distance-matrix read/write, the labels sidecar, and pretty-printing.
// Grounded on kmcp/cmd/util-binary-file.go's self-describing magic-byte
// header convention, generalized from kmcp's unik-file magic to a
// float-width-tagged distance-matrix magic, and on kmcp/cmd's use of
// tatsushid/go-prettytable for aligned TSV-style console output.
package matrix

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// FloatWidth selects the binary matrix's per-cell encoding (§4.6
// "Binary emission").
type FloatWidth uint8

const (
	Float32 FloatWidth = iota
	Float64
)

var magicF32 = [8]byte{'K', 'D', 'I', 'S', 'T', 'F', '3', '2'}
var magicF64 = [8]byte{'K', 'D', 'I', 'S', 'T', 'F', '6', '4'}

var be = binary.LittleEndian

// WriteHeader writes the 8-byte magic and u64 row count (§6.3).
func WriteHeader(w io.Writer, width FloatWidth, n uint64) error {
	magic := magicF32
	if width == Float64 {
		magic = magicF64
	}
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	var hdr [8]byte
	be.PutUint64(hdr[:], n)
	_, err := w.Write(hdr[:])
	return err
}

// ReadHeader reads and validates the magic, returning the float width
// and row count.
func ReadHeader(r io.Reader) (FloatWidth, uint64, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, 0, fmt.Errorf("matrix: short read of magic: %w", err)
	}
	var width FloatWidth
	switch magic {
	case magicF32:
		width = Float32
	case magicF64:
		width = Float64
	default:
		return 0, 0, fmt.Errorf("matrix: bad magic bytes")
	}
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, fmt.Errorf("matrix: short read of row count: %w", err)
	}
	return width, be.Uint64(hdr[:]), nil
}

// WriteRow appends one strict-upper-triangle row's values in width's
// encoding.
func WriteRow(w io.Writer, width FloatWidth, values []float64) error {
	if width == Float64 {
		buf := make([]byte, 8*len(values))
		for i, v := range values {
			be.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		_, err := w.Write(buf)
		return err
	}
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		be.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	_, err := w.Write(buf)
	return err
}

// ReadRow reads n values in width's encoding.
func ReadRow(r io.Reader, width FloatWidth, n int) ([]float64, error) {
	out := make([]float64, n)
	if width == Float64 {
		buf := make([]byte, 8*n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = math.Float64frombits(be.Uint64(buf[i*8:]))
		}
		return out, nil
	}
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = float64(math.Float32frombits(be.Uint32(buf[i*4:])))
	}
	return out, nil
}

// ReadAll reads every strict-upper-triangle row for an N-row matrix,
// returning it row-major as ReadRow would for each row.
func ReadAll(r io.Reader, width FloatWidth, n uint64) ([][]float64, error) {
	rows := make([][]float64, n)
	for i := uint64(0); i < n; i++ {
		vals, err := ReadRow(r, width, int(n-i-1))
		if err != nil {
			return nil, fmt.Errorf("matrix: reading row %d: %w", i, err)
		}
		rows[i] = vals
	}
	return rows, nil
}
