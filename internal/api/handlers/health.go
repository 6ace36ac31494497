package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/kairos/pkg/database"
	"github.com/wonny/kairos/pkg/logger"
)

// HealthHandler handles the health check endpoint
type HealthHandler struct {
	db     *database.DB
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler. The database may be nil
// when storage is disabled.
func NewHealthHandler(db *database.DB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: log}
}

// Health reports service health, including database health when storage
// is enabled
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": "kairos-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		status, err := h.db.HealthCheck(r.Context())
		if err != nil {
			h.logger.WithError(err).Warn("Database health check failed")
			resp["status"] = "degraded"
		}
		resp["database"] = status
	}

	respondJSON(w, http.StatusOK, resp)
}
