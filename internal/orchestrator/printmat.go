package orchestrator

import (
	"fmt"
	"io"

	"github.com/kmers-io/ksketch/internal/matrix"
)

// RunPrintMat executes the printmat/view subcommand (§4.8, §6.4): read a
// binary distance matrix and its labels sidecar, then pretty-print the
// upper triangle via the matrix package's prettytable writer as an
// aligned text table: columns are space-padded and separated by two
// spaces, not by tabs.
func RunPrintMat(matrixIn io.Reader, labelsIn io.Reader, out io.Writer, scientific bool) error {
	width, n, err := matrix.ReadHeader(matrixIn)
	if err != nil {
		return err
	}
	labels, err := matrix.ReadLabels(labelsIn)
	if err != nil {
		return err
	}
	if uint64(len(labels)) != n {
		return &ConfigError{Reason: fmt.Sprintf("labels sidecar has %d entries, matrix header declares %d", len(labels), n)}
	}

	rows, err := matrix.ReadAll(matrixIn, width, n)
	if err != nil {
		return err
	}
	return matrix.PrintUpperTri(out, labels, rows, scientific)
}

// RunFlatten executes the flatten subcommand (§6.4): read a binary
// distance matrix and re-emit it as long-format TSV rows
// "labelA\tlabelB\tvalue", one per upper-triangle cell. Grounded on the
// same binary/labels reader pair as RunPrintMat but for downstream
// tools that want row-per-pair rather than a square table.
func RunFlatten(matrixIn io.Reader, labelsIn io.Reader, out io.Writer) error {
	width, n, err := matrix.ReadHeader(matrixIn)
	if err != nil {
		return err
	}
	labels, err := matrix.ReadLabels(labelsIn)
	if err != nil {
		return err
	}
	if uint64(len(labels)) != n {
		return &ConfigError{Reason: fmt.Sprintf("labels sidecar has %d entries, matrix header declares %d", len(labels), n)}
	}

	rows, err := matrix.ReadAll(matrixIn, width, n)
	if err != nil {
		return err
	}
	for i, row := range rows {
		for k, v := range row {
			j := i + 1 + k
			if _, err := fmt.Fprintf(out, "%s\t%s\t%f\n", labels[i], labels[j], v); err != nil {
				return err
			}
		}
	}
	return nil
}
