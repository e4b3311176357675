package httpapi

import (
	"encoding/json"
	"net/http"
)

// HealthHandler serves the operational health/readiness endpoints of
// spec.md §5's HTTP collaborator, grounded on
// internal/api/handler.HealthHandler.
type HealthHandler struct {
	Version string
}

type healthPayload struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthPayload{Status: "ok", Version: h.Version})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthPayload{Status: "ready", Version: h.Version})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
