// Package engine defines the storage port implemented by the blob engine: a
// content-addressed blob store with reference-counted cleanup, layered over
// a single embedded relational database file. Concrete engines (currently
// only sqliteengine) live in subpackages so they can be tested and evolved
// independently of the HTTP surface that consumes this interface.
package engine

import (
	"errors"
	"io"

	"github.com/aegoroff/bstore/internal/model"
)

// Mode selects whether a handle is opened for reading or for writing.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// Sentinel errors returned by every Engine implementation. Callers use
// errors.Is to classify failures; see internal/httpx/errors.go.
var (
	// ErrNotFound indicates the requested file, bucket, or blob does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicatePath indicates an insert would violate the (path, bucket)
	// uniqueness invariant.
	ErrDuplicatePath = errors.New("path already exists in bucket")
	// ErrTooLarge indicates a payload exceeds the signed 32-bit blob size limit.
	ErrTooLarge = errors.New("payload exceeds maximum blob size")
)

// Engine is the storage port for the blob store. Every write operation
// (InsertFile, DeleteFile, DeleteBucket) is expected to retry transparently
// on writer contention; see retry.go.
type Engine interface {
	// InsertFile stores data under path/bucket, deduplicating by content
	// fingerprint, and returns the newly assigned file id.
	InsertFile(path, bucket string, data []byte) (int64, error)

	// DeleteBucket removes every file in bucket and sweeps orphaned blobs.
	DeleteBucket(bucket string) (model.DeleteResult, error)

	// DeleteFile removes the file with the given id and sweeps orphaned blobs.
	DeleteFile(id int64) (model.DeleteResult, error)

	// GetBuckets lists every distinct bucket with its file count.
	GetBuckets() ([]model.Bucket, error)

	// GetFiles lists every file in bucket, empty (not an error) if absent.
	GetFiles(bucket string) ([]model.File, error)

	// GetLastFile returns the most recently inserted file in bucket.
	GetLastFile(bucket string) (model.File, error)

	// GetFileInfo returns metadata for the file with the given id.
	GetFileInfo(id int64) (model.File, error)

	// SearchFileInfo returns metadata for the file at (bucket, path).
	SearchFileInfo(bucket, path string) (model.File, error)

	// GetFileData opens a positional reader over the blob bytes for the file
	// with the given id. The caller must Close it.
	GetFileData(id int64) (io.ReadCloser, error)

	// Close releases the underlying database handle.
	Close() error
}
