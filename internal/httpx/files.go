package httpx

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/aegoroff/bstore/internal/engine"
	"github.com/aegoroff/bstore/internal/ingest"
	"github.com/aegoroff/bstore/internal/metrics"
	"github.com/aegoroff/bstore/internal/model"
)

// collectPart buffers a single multipart part using the stream collector.
func collectPart(part *multipart.Part) ([]byte, int64, error) {
	defer part.Close()
	data, n, err := ingest.Collect(part)
	if err == nil {
		metrics.IngestBytesTotal.WithLabelValues("multipart").Add(float64(n))
	}
	return data, n, err
}

// basename returns the substring of path after the last '/' or '\',
// whichever occurs later; if neither is present the full path is used.
func basename(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// handleInsertOne implements POST /api/{bucket}/{file_name}.
func (h *Handler) handleInsertOne(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket, name := vars["bucket"], vars["file_name"]
	ctx := r.Context()

	data, n, err := ingest.Collect(r.Body)
	if err != nil {
		h.writeTextError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.IngestBytesTotal.WithLabelValues("body").Add(float64(n))

	eng, err := h.Open(engine.ReadWrite)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer eng.Close()

	id, err := eng.InsertFile(name, bucket, data)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	metrics.FilesInsertedTotal.Inc()
	writeJSON(w, http.StatusCreated, []int64{id})
}

// handleDownloadByPath implements GET /api/{bucket}/{file_name}.
func (h *Handler) handleDownloadByPath(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket, name := vars["bucket"], vars["file_name"]
	ctx := r.Context()

	eng, err := h.Open(engine.ReadOnly)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer eng.Close()

	info, err := eng.SearchFileInfo(bucket, name)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	h.streamFile(ctx, w, eng, info.ID, info.Path, info.Size)
}

// handleDeleteByPath implements DELETE /api/{bucket}/{file_name}.
func (h *Handler) handleDeleteByPath(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket, name := vars["bucket"], vars["file_name"]
	ctx := r.Context()

	eng, err := h.Open(engine.ReadWrite)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer eng.Close()

	info, err := eng.SearchFileInfo(bucket, name)
	if errors.Is(err, engine.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, model.DeleteResult{})
		return
	}
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	result, err := eng.DeleteFile(info.ID)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	metrics.BlobsDeletedTotal.Add(float64(result.Blobs))
	writeJSON(w, http.StatusOK, result)
}

// handleFileMeta implements GET /api/file/{id}/meta.
func (h *Handler) handleFileMeta(w http.ResponseWriter, r *http.Request) {
	id, ctx, ok := h.parseFileID(w, r)
	if !ok {
		return
	}

	eng, err := h.Open(engine.ReadOnly)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer eng.Close()

	info, err := eng.GetFileInfo(id)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDownloadByID implements GET /api/file/{id}.
func (h *Handler) handleDownloadByID(w http.ResponseWriter, r *http.Request) {
	id, ctx, ok := h.parseFileID(w, r)
	if !ok {
		return
	}

	eng, err := h.Open(engine.ReadOnly)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer eng.Close()

	info, err := eng.GetFileInfo(id)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	h.streamFile(ctx, w, eng, info.ID, info.Path, info.Size)
}

// handleDeleteByID implements DELETE /api/file/{id}.
func (h *Handler) handleDeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ctx, ok := h.parseFileID(w, r)
	if !ok {
		return
	}

	eng, err := h.Open(engine.ReadWrite)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	defer eng.Close()

	result, err := eng.DeleteFile(id)
	if err != nil {
		h.mapEngineError(ctx, w, err)
		return
	}
	metrics.BlobsDeletedTotal.Add(float64(result.Blobs))
	if result.Files == 0 {
		writeJSON(w, http.StatusNotFound, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) parseFileID(w http.ResponseWriter, r *http.Request) (int64, context.Context, bool) {
	ctx := r.Context()
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.writeTextError(ctx, w, http.StatusBadRequest, "invalid file id")
		return 0, ctx, false
	}
	return id, ctx, true
}
