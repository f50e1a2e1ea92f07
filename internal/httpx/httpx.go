// Package httpx is the HTTP delivery layer for bstore: it maps requests onto
// fresh Engine handles, enforces the body-size cap, and translates engine
// errors into the status-code contract. Handlers are split across files
// (buckets.go, files.go, zip.go, openapi.go, health.go).
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aegoroff/bstore/internal/engine"
)

// MaxBodyBytes is the default request body cap (2 GiB), enforced by
// bodyLimitMiddleware ahead of any handler.
const MaxBodyBytes = 2 << 30

// Opener opens a fresh Engine handle for a single request. Handlers always
// call it once per invocation and close the result before returning; no
// handle is shared across concurrent requests.
type Opener func(mode engine.Mode) (engine.Engine, error)

// Handler wires HTTP endpoints onto an Opener.
type Handler struct {
	Open    Opener
	Log     *slog.Logger
	MaxBody int64
}

// New returns a configured Handler. log defaults to slog.Default() if nil.
func New(open Opener, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Open: open, Log: log, MaxBody: MaxBodyBytes}
}

// Router builds the full routing table described by the HTTP surface,
// wrapped in the correlation-id, body-size, and request-metrics middleware.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter().StrictSlash(false)

	r.HandleFunc("/api/file/{id:[0-9]+}/meta", h.handleFileMeta).Methods(http.MethodGet)
	r.HandleFunc("/api/file/{id:[0-9]+}", h.handleDownloadByID).Methods(http.MethodGet)
	r.HandleFunc("/api/file/{id:[0-9]+}", h.handleDeleteByID).Methods(http.MethodDelete)

	r.HandleFunc("/api/{bucket}/zip", h.handleInsertZip).Methods(http.MethodPost)
	r.HandleFunc("/api/{bucket}/last", h.handleLastFile).Methods(http.MethodGet)
	r.HandleFunc("/api/{bucket}/{file_name:.*}", h.handleInsertOne).Methods(http.MethodPost)
	r.HandleFunc("/api/{bucket}/{file_name:.*}", h.handleDownloadByPath).Methods(http.MethodGet)
	r.HandleFunc("/api/{bucket}/{file_name:.*}", h.handleDeleteByPath).Methods(http.MethodDelete)

	r.HandleFunc("/api/{bucket}", h.handleInsertMany).Methods(http.MethodPost)
	r.HandleFunc("/api/{bucket}", h.handleDeleteBucket).Methods(http.MethodDelete)
	r.HandleFunc("/api/{bucket}", h.handleListFiles).Methods(http.MethodGet)

	r.HandleFunc("/api/", h.handleListBuckets).Methods(http.MethodGet)

	r.HandleFunc("/swagger", h.handleSwagger).Methods(http.MethodGet)
	r.HandleFunc("/api-doc/openapi.json", h.handleOpenAPI).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)

	r.Use(metricsMiddleware)

	var handler http.Handler = r
	handler = h.bodyLimitMiddleware(handler)
	handler = CorrelationIDMiddleware(handler)
	return handler
}

// bodyLimitMiddleware caps the request body to MaxBody bytes ahead of any
// handler, per the 2 GiB request body cap.
func (h *Handler) bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.MaxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.MaxBody)
		}
		next.ServeHTTP(w, r)
	})
}
