package sqliteengine_test

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aegoroff/bstore/internal/engine"
	"github.com/aegoroff/bstore/internal/engine/sqliteengine"
)

func openTestDB(t *testing.T) *sqliteengine.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bstore.db")
	db, err := sqliteengine.Open(path, engine.ReadWrite)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.NewDatabase(); err != nil {
		t.Fatalf("new database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertFileAndReadBack(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertFile("a/b.txt", "bucket1", []byte("hello world"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected nonzero id")
	}

	info, err := db.GetFileInfo(id)
	if err != nil {
		t.Fatalf("get file info: %v", err)
	}
	if info.Path != "a/b.txt" || info.Bucket != "bucket1" || info.Size != int64(len("hello world")) {
		t.Fatalf("unexpected file info: %+v", info)
	}

	rc, err := db.GetFileData(id)
	if err != nil {
		t.Fatalf("get file data: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("data mismatch: %q", data)
	}
}

func TestInsertFileDeduplicatesIdenticalContent(t *testing.T) {
	db := openTestDB(t)

	content := []byte("duplicate payload")
	id1, err := db.InsertFile("one.bin", "bucket1", content)
	if err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	id2, err := db.InsertFile("two.bin", "bucket1", content)
	if err != nil {
		t.Fatalf("insert 2: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected distinct file ids")
	}

	f1, err := db.GetFileInfo(id1)
	if err != nil {
		t.Fatalf("info 1: %v", err)
	}
	f2, err := db.GetFileInfo(id2)
	if err != nil {
		t.Fatalf("info 2: %v", err)
	}
	if f1.Hash != f2.Hash {
		t.Fatalf("expected shared hash, got %q and %q", f1.Hash, f2.Hash)
	}
}

func TestInsertFileRejectsDuplicatePathInBucket(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.InsertFile("same.txt", "bucket1", []byte("first")); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	_, err := db.InsertFile("same.txt", "bucket1", []byte("second"))
	if !errors.Is(err, engine.ErrDuplicatePath) {
		t.Fatalf("expected ErrDuplicatePath, got %v", err)
	}
}

func TestInsertFileAllowsSamePathInDifferentBuckets(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.InsertFile("same.txt", "bucket1", []byte("first")); err != nil {
		t.Fatalf("insert bucket1: %v", err)
	}
	if _, err := db.InsertFile("same.txt", "bucket2", []byte("second")); err != nil {
		t.Fatalf("insert bucket2: %v", err)
	}
}

func TestGetBucketsCountsFiles(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.InsertFile("a.txt", "bucketA", []byte("1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.InsertFile("b.txt", "bucketA", []byte("2")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.InsertFile("c.txt", "bucketB", []byte("3")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	buckets, err := db.GetBuckets()
	if err != nil {
		t.Fatalf("get buckets: %v", err)
	}
	counts := map[string]int{}
	for _, b := range buckets {
		counts[b.ID] = b.FilesCount
	}
	if counts["bucketA"] != 2 || counts["bucketB"] != 1 {
		t.Fatalf("unexpected bucket counts: %+v", counts)
	}
}

func TestGetLastFileReturnsMostRecentInsert(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.InsertFile("first.txt", "bucket1", []byte("1")); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	if _, err := db.InsertFile("second.txt", "bucket1", []byte("2")); err != nil {
		t.Fatalf("insert 2: %v", err)
	}

	last, err := db.GetLastFile("bucket1")
	if err != nil {
		t.Fatalf("get last file: %v", err)
	}
	if last.Path != "second.txt" {
		t.Fatalf("expected second.txt, got %s", last.Path)
	}
}

func TestDeleteFileSweepsOrphanedBlob(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertFile("solo.txt", "bucket1", []byte("only reference"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	result, err := db.DeleteFile(id)
	if err != nil {
		t.Fatalf("delete file: %v", err)
	}
	if result.Files != 1 || result.Blobs != 1 {
		t.Fatalf("expected 1 file and 1 blob removed, got %+v", result)
	}

	if _, err := db.GetFileInfo(id); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteFileKeepsBlobWithRemainingReferences(t *testing.T) {
	db := openTestDB(t)

	content := []byte("shared content")
	id1, err := db.InsertFile("one.txt", "bucket1", content)
	if err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	id2, err := db.InsertFile("two.txt", "bucket1", content)
	if err != nil {
		t.Fatalf("insert 2: %v", err)
	}

	result, err := db.DeleteFile(id1)
	if err != nil {
		t.Fatalf("delete file: %v", err)
	}
	if result.Files != 1 || result.Blobs != 0 {
		t.Fatalf("expected blob to survive shared reference, got %+v", result)
	}

	if _, err := db.GetFileInfo(id2); err != nil {
		t.Fatalf("remaining file should still be readable: %v", err)
	}
}

func TestDeleteBucketRemovesAllFilesAndSweepsBlobs(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.InsertFile("a.txt", "bucketA", []byte("1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.InsertFile("b.txt", "bucketA", []byte("2")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.InsertFile("c.txt", "bucketB", []byte("3")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	result, err := db.DeleteBucket("bucketA")
	if err != nil {
		t.Fatalf("delete bucket: %v", err)
	}
	if result.Files != 2 || result.Blobs != 2 {
		t.Fatalf("unexpected delete result: %+v", result)
	}

	files, err := db.GetFiles("bucketA")
	if err != nil {
		t.Fatalf("get files: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected bucketA empty, got %+v", files)
	}

	remaining, err := db.GetFiles("bucketB")
	if err != nil {
		t.Fatalf("get files bucketB: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected bucketB untouched, got %+v", remaining)
	}
}

func TestSearchFileInfoByBucketAndPath(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertFile("dir/nested/name.bin", "bucket1", []byte("data"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	found, err := db.SearchFileInfo("bucket1", "dir/nested/name.bin")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if found.ID != id {
		t.Fatalf("expected id %d, got %d", id, found.ID)
	}

	if _, err := db.SearchFileInfo("bucket1", "missing.bin"); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetFilesEmptyBucketReturnsEmptyNotError(t *testing.T) {
	db := openTestDB(t)

	files, err := db.GetFiles("does-not-exist")
	if err != nil {
		t.Fatalf("get files: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %+v", files)
	}
}
