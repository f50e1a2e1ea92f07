package httpx

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aegoroff/bstore/internal/engine"
	"github.com/aegoroff/bstore/internal/ingest"
	"github.com/aegoroff/bstore/internal/metrics"
)

// handleInsertZip implements POST /api/{bucket}/zip: the whole request body
// is collected, parsed as a zip archive, and every entry is inserted
// independently under the target bucket. A malformed archive fails the
// whole request; per-entry failures are logged and skipped.
func (h *Handler) handleInsertZip(w http.ResponseWriter, r *http.Request) {
	bucket := mux.Vars(r)["bucket"]
	ctx := r.Context()

	data, n, err := ingest.Collect(r.Body)
	if err != nil {
		h.writeTextError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.IngestBytesTotal.WithLabelValues("zip").Add(float64(n))

	entries, err := ingest.ExtractZip(h.Log, data)
	if err != nil {
		h.writeTextError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	eng, err := h.Open(engine.ReadWrite)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer eng.Close()

	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		id, err := eng.InsertFile(entry.Path, bucket, entry.Data)
		if err != nil {
			h.logSkippedItem(ctx, entry.Path, err)
			continue
		}
		metrics.FilesInsertedTotal.Inc()
		ids = append(ids, id)
	}

	writeJSON(w, http.StatusCreated, ids)
}
