// Package ingest turns asynchronous byte sources (HTTP bodies, multipart
// parts, zip entries) into the in-memory buffers the blob engine consumes.
package ingest

import (
	"bytes"
	"fmt"
	"io"
)

// Collect drains r into a single buffer and returns its bytes alongside the
// count read. Any read error from r is terminal: partial bytes already read
// are discarded and the error is returned. The caller is responsible for
// capping r's size upstream (see httpx's body-size middleware); Collect
// itself has no limit of its own.
func Collect(r io.Reader) ([]byte, int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, 0, fmt.Errorf("collecting stream: %w", err)
	}
	return buf.Bytes(), n, nil
}
