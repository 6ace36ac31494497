package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/logger"
)

const defaultRunLimit = 10

// RunHandler handles batch-run API endpoints
// ⭐ SSOT: 런 조회 API 핸들러는 이 구조체에서만
type RunHandler struct {
	runs   contracts.RunRepository
	logger *logger.Logger
}

// NewRunHandler creates a new run handler. The repository may be nil
// when storage is disabled.
func NewRunHandler(runs contracts.RunRepository, log *logger.Logger) *RunHandler {
	return &RunHandler{runs: runs, logger: log}
}

// ListRuns returns the most recent runs, newest first
// GET /api/v1/runs?limit=N
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Storage not configured")
		return
	}

	limit := defaultRunLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "Invalid limit (expected 1-100)")
			return
		}
		limit = n
	}

	runs, err := h.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if runs == nil {
		runs = []*contracts.RunRecord{}
	}

	respondJSON(w, http.StatusOK, runs)
}

// GetRun returns one run with its per-instrument statuses
// GET /api/v1/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Storage not configured")
		return
	}

	id := mux.Vars(r)["id"]
	rec, err := h.runs.GetRun(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
