package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/tally/internal/server/response"
)

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":    "healthy",
		"service":   "tally-api",
		"version":   h.version,
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"features": map[string]bool{
			"automatic_id_generation": true,
			"dataset_configurations":  true,
			"duplicate_detection":     true,
			"column_mapping":          true,
			"unlimited_rows":          true,
		},
	})
}
