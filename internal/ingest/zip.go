package ingest

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"path"
	"strings"
)

// ZipEntry pairs a sanitized relative path with its uncompressed bytes,
// ready to hand to the blob engine alongside the request's target bucket.
type ZipEntry struct {
	Path string
	Data []byte
}

// ExtractZip iterates the entries of the zip archive held in data. Entries
// whose name sanitizes to empty, or that fail to read, are logged and
// skipped; the rest of the archive is still processed. A malformed archive
// fails the whole call, since nothing about its entry table can be trusted.
func ExtractZip(log *slog.Logger, data []byte) ([]ZipEntry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	entries := make([]ZipEntry, 0, len(r.File))
	for _, f := range r.File {
		name := sanitizeZipPath(f.Name)
		if name == "" {
			log.Warn("skipping zip entry with unusable name", "name", f.Name)
			continue
		}
		if f.FileInfo().IsDir() {
			continue
		}

		body, err := readZipEntry(f)
		if err != nil {
			log.Warn("skipping unreadable zip entry", "name", f.Name, "error", err)
			continue
		}

		entries = append(entries, ZipEntry{Path: name, Data: body})
	}
	return entries, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, 0, clampCapacityHint(f.UncompressedSize64))
	w := bytes.NewBuffer(buf)
	if _, err := io.Copy(w, rc); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// clampCapacityHint bounds a declared entry size to 64 MiB, which always fits
// a platform int, since it is used only to pre-size a buffer, never to trust
// input.
func clampCapacityHint(size uint64) int {
	const maxHint = 1 << 26 // 64 MiB; anything larger just grows on demand
	if size > maxHint {
		return maxHint
	}
	return int(size)
}

// sanitizeZipPath strips parent-directory traversal and normalizes
// separators, returning "" if nothing safe remains.
func sanitizeZipPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return ""
	}

	cleaned := path.Clean(name)
	for strings.HasPrefix(cleaned, "../") {
		cleaned = strings.TrimPrefix(cleaned, "../")
	}
	if cleaned == "." || cleaned == ".." {
		return ""
	}
	return cleaned
}
