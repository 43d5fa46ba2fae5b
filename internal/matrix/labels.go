package matrix

import (
	"bufio"
	"io"
)

// WriteLabels writes one path per line, LF-terminated (§6.3's labels
// sidecar).
func WriteLabels(w io.Writer, labels []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range labels {
		if _, err := bw.WriteString(l); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadLabels reads a labels sidecar back into order-preserving slice.
func ReadLabels(r io.Reader) ([]string, error) {
	var labels []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		labels = append(labels, sc.Text())
	}
	return labels, sc.Err()
}
