package client_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aegoroff/bstore/internal/client"
	"github.com/aegoroff/bstore/internal/model"
)

func TestInsertFileUploadsBodyAndReturnsID(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]int64{42})
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "local.txt")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	c := client.New(srv.URL)
	id, err := c.InsertFile(path, "bucket1", "")
	if err != nil {
		t.Fatalf("insert file: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
	if gotPath != "/api/bucket1/local.txt" {
		t.Fatalf("unexpected request path: %s", gotPath)
	}
	if string(gotBody) != "payload" {
		t.Fatalf("unexpected request body: %s", gotBody)
	}
}

func TestInsertFileUsesNameOverride(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]int64{7})
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "local.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	c := client.New(srv.URL)
	if _, err := c.InsertFile(path, "bucket1", "renamed.txt"); err != nil {
		t.Fatalf("insert file: %v", err)
	}
	if gotPath != "/api/bucket1/renamed.txt" {
		t.Fatalf("unexpected request path: %s", gotPath)
	}
}

func TestInsertFileReturnsErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "local.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	c := client.New(srv.URL)
	if _, err := c.InsertFile(path, "bucket1", ""); err == nil {
		t.Fatalf("expected error on server failure")
	}
}

func TestListBucketsDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]model.Bucket{{ID: "b1", FilesCount: 3}})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	buckets, err := c.ListBuckets()
	if err != nil {
		t.Fatalf("list buckets: %v", err)
	}
	if len(buckets) != 1 || buckets[0].ID != "b1" || buckets[0].FilesCount != 3 {
		t.Fatalf("unexpected buckets: %+v", buckets)
	}
}
