package httptransport

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth reports liveness plus storage reachability. A failing store
// turns the response into a 503 so load balancers drain the instance.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Database:  "ok",
		Timestamp: time.Now().UTC(),
	}

	status := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
