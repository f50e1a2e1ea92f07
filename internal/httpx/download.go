package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aegoroff/bstore/internal/engine"
)

// streamFile writes the download response for a resolved file: octet-stream
// content type, an attachment disposition naming the basename of path, and
// the blob's exact byte length. The current implementation buffers the blob
// fully via GetFileData before copying it to the response; see the design
// notes on streaming downloads for the known limitation with very large
// files.
func (h *Handler) streamFile(ctx context.Context, w http.ResponseWriter, eng engine.Engine, id int64, path string, size int64) {
	rc, err := eng.GetFileData(id)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, basename(path)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		cid, _ := GetCorrelationID(ctx)
		h.Log.Error("download stream error", "cid", cid, "error", err)
	}
}
