package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/aegoroff/bstore/internal/engine"
)

// writeTextError writes a plain-text error body, used for singleton reads
// and engine failures per the error taxonomy.
func (h *Handler) writeTextError(ctx context.Context, w http.ResponseWriter, code int, msg string) {
	cid, _ := GetCorrelationID(ctx)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
	h.Log.Debug("wrote error response", "cid", cid, "status", code, "msg", msg)
}

// mapEngineError translates an Engine error into the matching HTTP status
// and body, per the error taxonomy: not-found errors become 404 with a
// plain-text body, over-size payloads become 413, and everything else is an
// engine/IO failure surfaced as 500 with the original message.
func (h *Handler) mapEngineError(ctx context.Context, w http.ResponseWriter, err error) {
	cid, _ := GetCorrelationID(ctx)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		h.Log.Info("engine error", "cid", cid, "code", "not_found")
		h.writeTextError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrTooLarge):
		h.Log.Warn("engine error", "cid", cid, "code", "too_large")
		h.writeTextError(ctx, w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		h.Log.Error("engine error", "cid", cid, "code", "internal", "error", err)
		h.writeTextError(ctx, w, http.StatusInternalServerError, err.Error())
	}
}

// logSkippedItem records a per-item failure inside a batch (multipart part
// or zip entry) without aborting the rest of the batch.
func (h *Handler) logSkippedItem(ctx context.Context, item string, err error) {
	cid, _ := GetCorrelationID(ctx)
	h.Log.Warn("skipping batch item", "cid", cid, "item", item, "error", err)
}
