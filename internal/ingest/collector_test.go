package ingest_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aegoroff/bstore/internal/ingest"
)

type failingReader struct {
	readN int
	data  []byte
	err   error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.readN >= len(f.data) {
		return 0, f.err
	}
	n := copy(p, f.data[f.readN:])
	f.readN += n
	return n, nil
}

func TestCollectReadsFullStream(t *testing.T) {
	data, n, err := ingest.Collect(strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if n != int64(len("hello world")) {
		t.Fatalf("unexpected byte count: %d", n)
	}
	if string(data) != "hello world" {
		t.Fatalf("unexpected data: %q", data)
	}
}

func TestCollectEmptyStream(t *testing.T) {
	data, n, err := ingest.Collect(strings.NewReader(""))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if n != 0 || len(data) != 0 {
		t.Fatalf("expected empty result, got n=%d data=%q", n, data)
	}
}

func TestCollectDiscardsPartialBytesOnError(t *testing.T) {
	sentinel := errors.New("connection reset")
	r := &failingReader{data: []byte("partial"), err: sentinel}
	data, n, err := ingest.Collect(r)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel error, got %v", err)
	}
	if data != nil || n != 0 {
		t.Fatalf("expected partial bytes discarded, got n=%d data=%q", n, data)
	}
}

var _ io.Reader = (*failingReader)(nil)
