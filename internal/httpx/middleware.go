package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aegoroff/bstore/internal/metrics"
)

// correlationIDKey is an unexported context key type to avoid collisions
// with keys set by other packages.
type correlationIDKey struct{}

var cidKey = correlationIDKey{}

// CorrelationIDHeader is the header carrying the per-request correlation id,
// both inbound (if the client supplies one) and outbound.
const CorrelationIDHeader = "X-Correlation-Id"

// CorrelationIDMiddleware ensures every request carries a correlation id: it
// trusts an inbound header if present, otherwise generates a UUIDv4. The id
// is echoed on the response and attached to the request context for
// handlers and their logging.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationIDHeader)
		if cid == "" {
			cid = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), cidKey, cid)
		w.Header().Set(CorrelationIDHeader, cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCorrelationID extracts the correlation id from ctx, if present.
func GetCorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(cidKey).(string)
	return id, ok
}

// statusRecorder wraps a ResponseWriter to capture the status code written
// by the handler, for metricsMiddleware's labeling.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request counts and durations labeled by the
// matched route template and response status. It must run after mux has
// matched a route (via Router.Use), so mux.CurrentRoute can resolve the
// template.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if m := mux.CurrentRoute(r); m != nil {
			if tpl, err := m.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		timer.ObserveDurationVec(metrics.RequestDuration, route)
	})
}
