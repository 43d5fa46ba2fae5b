package matrix

import (
	"fmt"
	"io"

	prettytable "github.com/tatsushid/go-prettytable"
)

// PrintUpperTri pretty-prints a strict-upper-triangle matrix (as read by
// ReadAll) against its labels, one aligned console table, grounded on
// kmcp/cmd/unik-info.go's prettytable.NewTable/AddRow/Bytes usage.
func PrintUpperTri(w io.Writer, labels []string, rows [][]float64, scientific bool) error {
	n := len(labels)
	columns := make([]prettytable.Column, n+1)
	columns[0] = prettytable.Column{Header: ""}
	for j := 0; j < n; j++ {
		columns[j+1] = prettytable.Column{Header: labels[j], AlignRight: true}
	}
	tbl, err := prettytable.NewTable(columns...)
	if err != nil {
		return err
	}
	tbl.Separator = "  "

	format := "%f"
	if scientific {
		format = "%e"
	}

	for i := 0; i < n; i++ {
		cells := make([]interface{}, n+1)
		cells[0] = labels[i]
		for j := 0; j <= i; j++ {
			cells[j+1] = "-"
		}
		for j := i + 1; j < n; j++ {
			cells[j+1] = fmt.Sprintf(format, rows[i][j-i-1])
		}
		if err := tbl.AddRow(cells...); err != nil {
			return err
		}
	}
	_, err = w.Write(tbl.Bytes())
	return err
}
