// Package metrics exposes Prometheus counters and histograms for the HTTP
// surface and the blob engine, and the handler that serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bstore_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bstore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	FilesInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bstore_files_inserted_total",
			Help: "Total number of files successfully inserted",
		},
	)

	BlobsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bstore_blobs_created_total",
			Help: "Total number of distinct blob rows created",
		},
	)

	BlobsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bstore_blobs_deleted_total",
			Help: "Total number of blob rows swept by delete operations",
		},
	)

	EngineBusyRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bstore_engine_busy_retries_total",
			Help: "Total number of writer-contention retries performed by the retry driver",
		},
	)

	IngestBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bstore_ingest_bytes_total",
			Help: "Total bytes accepted by the stream collector, by source",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(FilesInsertedTotal)
	prometheus.MustRegister(BlobsCreatedTotal)
	prometheus.MustRegister(BlobsDeletedTotal)
	prometheus.MustRegister(EngineBusyRetriesTotal)
	prometheus.MustRegister(IngestBytesTotal)
}

// Handler returns the promhttp handler for a /metrics endpoint. When token is
// non-empty, requests must present it as a bearer token or are rejected.
func Handler(token string) http.Handler {
	h := promhttp.Handler()
	if token == "" {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Timer measures elapsed wall-clock time for a single operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer { return &Timer{start: time.Now()} }

// ObserveDurationVec records the elapsed time against a labeled histogram.
func (t *Timer) ObserveDurationVec(h prometheus.ObserverVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
