// Package model holds the wire and record shapes shared between the HTTP
// surface, the blob engine, and the upload client.
package model

// Bucket is a read-only aggregate of the files grouped under a bucket label.
// A bucket has no row of its own; it exists only as long as at least one
// File references it.
type Bucket struct {
	ID         string `json:"id"`
	FilesCount int    `json:"files_count"`
}

// File is a read-only projection joining a file row with its blob.
type File struct {
	ID     int64  `json:"id"`
	Path   string `json:"path"`
	Bucket string `json:"bucket"`
	Size   int64  `json:"size"`
	Hash   string `json:"hash"`
}

// DeleteResult counts rows removed by the most recent delete operation.
type DeleteResult struct {
	Files int `json:"files"`
	Blobs int `json:"blobs"`
}
