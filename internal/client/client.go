// Package client implements the bstore upload client: uploading a local
// file to a running server and listing its buckets.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/aegoroff/bstore/internal/model"
)

// Client talks to a bstore server's HTTP API over a base URI.
type Client struct {
	baseURI    string
	httpClient *http.Client
}

// New returns a Client targeting baseURI (e.g. "http://localhost:5000").
func New(baseURI string) *Client {
	return &Client{baseURI: baseURI, httpClient: http.DefaultClient}
}

// InsertFile reads path from the local filesystem and uploads it to bucket
// under name (path's basename if name is empty), returning the assigned
// file id. It streams the file body directly; the whole file is never
// buffered client-side beyond what net/http itself buffers.
func (c *Client) InsertFile(path, bucket, name string) (int64, error) {
	if name == "" {
		name = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	endpoint, err := url.JoinPath(c.baseURI, "api", bucket, name)
	if err != nil {
		return 0, fmt.Errorf("building upload url: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, f)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("uploading %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("server returned %s: %s", resp.Status, string(body))
	}

	var ids []int64
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("server accepted no ids for %s", path)
	}
	return ids[0], nil
}

// ListBuckets fetches every bucket known to the server.
func (c *Client) ListBuckets() ([]model.Bucket, error) {
	endpoint, err := url.JoinPath(c.baseURI, "api/")
	if err != nil {
		return nil, fmt.Errorf("building list url: %w", err)
	}

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, string(body))
	}

	var buckets []model.Bucket
	if err := json.NewDecoder(resp.Body).Decode(&buckets); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return buckets, nil
}
