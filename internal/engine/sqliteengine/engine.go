// Package sqliteengine implements the blob engine storage port over an
// embedded SQLite database file, using database/sql and the mattn/go-sqlite3
// driver. It owns the "blob" and "file" relations described by the spec:
// distinct byte sequences are stored once per BLAKE3 fingerprint and
// referenced by any number of named files grouped into buckets.
package sqliteengine

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mattn/go-sqlite3"

	"github.com/aegoroff/bstore/internal/engine"
	"github.com/aegoroff/bstore/internal/metrics"
	"github.com/aegoroff/bstore/internal/model"
)

const cacheSizePages = 16384

// DB implements engine.Engine over a *sql.DB handle opened in either
// read-only or read-write mode. Callers open a fresh DB per request; see
// internal/httpx, which never shares a handle between concurrent requests.
type DB struct {
	conn *sql.DB
}

var _ engine.Engine = (*DB)(nil)

// Open acquires a handle on the database file at path in the given mode and
// applies the session pragmas every handle needs before first use (cache
// size, foreign keys, synchronous=FULL). It does not create the schema; call
// NewDatabase once, on a read-write handle, the first time the file is
// created.
func Open(path string, mode engine.Mode) (*DB, error) {
	dsn := path
	if mode == engine.ReadOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro", path)
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db := &DB{conn: conn}
	if err := db.applyPragmas(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) applyPragmas() error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d", cacheSizePages),
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = FULL",
	}
	for _, p := range pragmas {
		if _, err := d.conn.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

// NewDatabase creates the blob and file relations and their unique index. It
// must run exactly once per database file, on a read-write handle, before
// any other operation.
func (d *DB) NewDatabase() error {
	stmts := []string{
		"PRAGMA encoding = 'UTF-8'",
		"PRAGMA journal_mode = WAL",
		`CREATE TABLE IF NOT EXISTS blob (
			hash TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			size INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS file (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			hash   TEXT NOT NULL REFERENCES blob(hash) ON DELETE RESTRICT ON UPDATE RESTRICT,
			path   TEXT NOT NULL,
			bucket TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS file_path_bucket_ix ON file(path, bucket)`,
	}
	for _, s := range stmts {
		if _, err := d.conn.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error { return d.conn.Close() }

// withRetry wraps action with the package-level busy/locked retry loop.
func (d *DB) withRetry(action func() error) error {
	return engine.WithBusyRetry(action)
}

// InsertFile implements engine.Engine.InsertFile. See spec §4.1 for the
// five-step algorithm this follows.
func (d *DB) InsertFile(path, bucket string, data []byte) (int64, error) {
	if len(data) > math.MaxInt32 {
		return 0, engine.ErrTooLarge
	}
	hash := fingerprint(data)

	var id int64
	var blobCreated bool
	err := d.withRetry(func() error {
		blobCreated = false
		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var exists bool
		row := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM blob WHERE hash = ?)", hash)
		if err := row.Scan(&exists); err != nil {
			return err
		}
		if !exists {
			if _, err := tx.Exec("INSERT INTO blob (hash, data, size) VALUES (?, ?, ?)", hash, data, len(data)); err != nil {
				return err
			}
			blobCreated = true
		}

		if _, err := tx.Exec("INSERT INTO file (hash, path, bucket) VALUES (?, ?, ?)", hash, path, bucket); err != nil {
			if isUniqueViolation(err) {
				return engine.ErrDuplicatePath
			}
			return err
		}

		if err := tx.QueryRow("SELECT MAX(id) FROM file").Scan(&id); err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	if blobCreated {
		metrics.BlobsCreatedTotal.Inc()
	}
	return id, nil
}

// DeleteBucket implements engine.Engine.DeleteBucket.
func (d *DB) DeleteBucket(bucket string) (model.DeleteResult, error) {
	return d.deleteAndSweep("DELETE FROM file WHERE bucket = ?", bucket)
}

// DeleteFile implements engine.Engine.DeleteFile.
func (d *DB) DeleteFile(id int64) (model.DeleteResult, error) {
	return d.deleteAndSweep("DELETE FROM file WHERE id = ?", id)
}

// deleteAndSweep runs the given DELETE against file inside a transaction,
// then performs the reference-counted blob cleanup sweep in the same
// transaction, per spec §4.1's cleanup sweep.
func (d *DB) deleteAndSweep(deleteStmt string, arg any) (model.DeleteResult, error) {
	var result model.DeleteResult
	err := d.withRetry(func() error {
		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		res, err := tx.Exec(deleteStmt, arg)
		if err != nil {
			return err
		}
		filesDeleted, err := res.RowsAffected()
		if err != nil {
			return err
		}

		blobRes, err := tx.Exec("DELETE FROM blob WHERE hash NOT IN (SELECT hash FROM file)")
		if err != nil {
			return err
		}
		blobsDeleted, err := blobRes.RowsAffected()
		if err != nil {
			return err
		}

		result = model.DeleteResult{Files: int(filesDeleted), Blobs: int(blobsDeleted)}
		return tx.Commit()
	})
	if err != nil {
		return model.DeleteResult{}, err
	}
	return result, nil
}

// GetBuckets implements engine.Engine.GetBuckets.
func (d *DB) GetBuckets() ([]model.Bucket, error) {
	rows, err := d.conn.Query("SELECT bucket, COUNT(bucket) FROM file GROUP BY bucket")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []model.Bucket
	for rows.Next() {
		var b model.Bucket
		if err := rows.Scan(&b.ID, &b.FilesCount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

const fileSelect = `SELECT file.id, file.path, file.bucket, blob.size, file.hash
	FROM file INNER JOIN blob ON file.hash = blob.hash`

// GetFiles implements engine.Engine.GetFiles.
func (d *DB) GetFiles(bucket string) ([]model.File, error) {
	rows, err := d.conn.Query(fileSelect+" WHERE file.bucket = ?", bucket)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// GetLastFile implements engine.Engine.GetLastFile.
func (d *DB) GetLastFile(bucket string) (model.File, error) {
	row := d.conn.QueryRow(fileSelect+" WHERE file.bucket = ? ORDER BY file.id DESC LIMIT 1", bucket)
	return scanFileRow(row)
}

// GetFileInfo implements engine.Engine.GetFileInfo.
func (d *DB) GetFileInfo(id int64) (model.File, error) {
	row := d.conn.QueryRow(fileSelect+" WHERE file.id = ?", id)
	return scanFileRow(row)
}

// SearchFileInfo implements engine.Engine.SearchFileInfo.
func (d *DB) SearchFileInfo(bucket, path string) (model.File, error) {
	row := d.conn.QueryRow(fileSelect+" WHERE file.bucket = ? AND file.path = ?", bucket, path)
	return scanFileRow(row)
}

// GetFileData implements engine.Engine.GetFileData. It locates the blob row
// backing id, then returns a read-only reader over the stored bytes.
func (d *DB) GetFileData(id int64) (io.ReadCloser, error) {
	var data []byte
	row := d.conn.QueryRow("SELECT data FROM blob WHERE hash IN (SELECT hash FROM file WHERE id = ?)", id)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func scanFile(rows *sql.Rows) (model.File, error) {
	var f model.File
	err := rows.Scan(&f.ID, &f.Path, &f.Bucket, &f.Size, &f.Hash)
	return f, err
}

func scanFileRow(row *sql.Row) (model.File, error) {
	var f model.File
	if err := row.Scan(&f.ID, &f.Path, &f.Bucket, &f.Size, &f.Hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.File{}, engine.ErrNotFound
		}
		return model.File{}, err
	}
	return f, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// violation on the (path, bucket) index.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
