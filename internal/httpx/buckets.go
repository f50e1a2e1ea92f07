package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aegoroff/bstore/internal/engine"
	"github.com/aegoroff/bstore/internal/metrics"
	"github.com/aegoroff/bstore/internal/model"
)

// handleListBuckets implements GET /api/.
func (h *Handler) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	eng, err := h.Open(engine.ReadOnly)
	if err != nil {
		h.mapEngineError(r.Context(), w, err)
		return
	}
	defer eng.Close()

	buckets, err := eng.GetBuckets()
	if err != nil {
		h.mapEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// handleListFiles implements GET /api/{bucket}.
func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	bucket := mux.Vars(r)["bucket"]

	eng, err := h.Open(engine.ReadOnly)
	if err != nil {
		h.mapEngineError(r.Context(), w, err)
		return
	}
	defer eng.Close()

	files, err := eng.GetFiles(bucket)
	if err != nil {
		h.mapEngineError(r.Context(), w, err)
		return
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusNotFound, []model.File{})
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// handleLastFile implements GET /api/{bucket}/last.
func (h *Handler) handleLastFile(w http.ResponseWriter, r *http.Request) {
	bucket := mux.Vars(r)["bucket"]

	eng, err := h.Open(engine.ReadOnly)
	if err != nil {
		h.mapEngineError(r.Context(), w, err)
		return
	}
	defer eng.Close()

	file, err := eng.GetLastFile(bucket)
	if err != nil {
		h.mapEngineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

// handleDeleteBucket implements DELETE /api/{bucket}.
func (h *Handler) handleDeleteBucket(w http.ResponseWriter, r *http.Request) {
	bucket := mux.Vars(r)["bucket"]

	eng, err := h.Open(engine.ReadWrite)
	if err != nil {
		h.mapEngineError(r.Context(), w, err)
		return
	}
	defer eng.Close()

	result, err := eng.DeleteBucket(bucket)
	if err != nil {
		h.mapEngineError(r.Context(), w, err)
		return
	}
	if result.Files == 0 {
		writeJSON(w, http.StatusNotFound, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleInsertMany implements POST /api/{bucket}: a multipart form carrying
// one or more file parts, each inserted independently. Per-part failures
// (duplicate path, read error) are logged and omitted from the returned id
// list; the rest of the batch still completes with 201.
func (h *Handler) handleInsertMany(w http.ResponseWriter, r *http.Request) {
	bucket := mux.Vars(r)["bucket"]
	ctx := r.Context()

	mr, err := r.MultipartReader()
	if err != nil {
		h.writeTextError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	eng, err := h.Open(engine.ReadWrite)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer eng.Close()

	ids := make([]int64, 0)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		data, _, err := collectPart(part)
		if err != nil {
			h.logSkippedItem(ctx, part.FileName(), err)
			continue
		}
		name := part.FileName()
		if name == "" {
			name = part.FormName()
		}
		id, err := eng.InsertFile(name, bucket, data)
		if err != nil {
			h.logSkippedItem(ctx, name, err)
			continue
		}
		metrics.FilesInsertedTotal.Inc()
		ids = append(ids, id)
	}

	writeJSON(w, http.StatusCreated, ids)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
