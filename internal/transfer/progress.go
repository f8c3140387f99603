package transfer

import (
	"fmt"
	"io"
)

// progressReader counts bytes as they pass through and reports the
// running percentage of total after each chunk. With an unknown total
// (total <= 0) or a nil writer it counts silently.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	w        io.Writer
	verb     string
	reported bool
}

func newProgressReader(r io.Reader, total int64, w io.Writer, verb string) *progressReader {
	return &progressReader{r: r, total: total, w: w, verb: verb}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		if pr.w != nil && pr.total > 0 {
			pct := float64(pr.read) / float64(pr.total) * 100
			fmt.Fprintf(pr.w, "\r%s: %.1f%%", pr.verb, pct)
			pr.reported = true
		}
	}
	return n, err
}

// finish terminates the in-place progress line, if one was written
func (pr *progressReader) finish() {
	if pr.reported {
		fmt.Fprintln(pr.w)
	}
}

// Close closes the underlying reader when it is closeable, so the
// progress wrapper can stand in for a request body.
func (pr *progressReader) Close() error {
	if c, ok := pr.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
