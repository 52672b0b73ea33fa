package ptp

import (
	"io"
)

// NullWriter swallows data phases that carry nothing of interest, such
// as the replies to the Sony handshake operations.
type NullWriter struct{}

func (nw *NullWriter) Write(dest []byte) (n int, err error) {
	return len(dest), nil
}

var _ = (io.Writer)((*NullWriter)(nil))
