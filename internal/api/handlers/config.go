package handlers

import (
	"net/http"

	"github.com/wonny/kairos/internal/pipelineconfig"
	"github.com/wonny/kairos/pkg/logger"
)

// ConfigHandler exposes the pipeline configuration the server was started with
type ConfigHandler struct {
	cfg    *pipelineconfig.Config
	hash   string
	logger *logger.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *pipelineconfig.Config, hash string, log *logger.Logger) *ConfigHandler {
	return &ConfigHandler{cfg: cfg, hash: hash, logger: log}
}

// GetConfig returns the active pipeline config and its hash
// GET /api/v1/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hash":   h.hash,
		"config": h.cfg,
	})
}
