package httpx

import "net/http"

// handleHealthz reports liveness. It does not open a database handle: the
// server cannot accept connections at all if the listener failed to bind,
// so reaching this handler already implies the process is alive.
func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
