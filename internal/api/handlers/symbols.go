package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/logger"
)

const defaultFeatureLimit = 30

// SymbolHandler handles symbol and feature-row API endpoints
type SymbolHandler struct {
	bars     contracts.BarRepository
	features contracts.FeatureRepository
	logger   *logger.Logger
}

// NewSymbolHandler creates a new symbol handler. Repositories may be nil
// when storage is disabled.
func NewSymbolHandler(bars contracts.BarRepository, features contracts.FeatureRepository, log *logger.Logger) *SymbolHandler {
	return &SymbolHandler{bars: bars, features: features, logger: log}
}

// ListSymbols returns the distinct symbols present in the bar store
// GET /api/v1/symbols
func (h *SymbolHandler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	if h.bars == nil {
		respondError(w, http.StatusServiceUnavailable, "Storage not configured")
		return
	}

	symbols, err := h.bars.Symbols(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list symbols")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve symbols")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// GetFeatures returns the most recent feature rows for one symbol,
// oldest first
// GET /api/v1/symbols/{symbol}/features?limit=N
func (h *SymbolHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	if h.features == nil {
		respondError(w, http.StatusServiceUnavailable, "Storage not configured")
		return
	}

	symbol := mux.Vars(r)["symbol"]

	limit := defaultFeatureLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 1000 {
			respondError(w, http.StatusBadRequest, "Invalid limit (expected 1-1000)")
			return
		}
		limit = n
	}

	rows, err := h.features.RecentRows(r.Context(), symbol, limit)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get feature rows")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve feature rows")
		return
	}

	out := make([]featureRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toFeatureResponse(row))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"rows":   out,
		"count":  len(out),
	})
}

type featureRowResponse struct {
	Symbol string              `json:"symbol"`
	Date   string              `json:"date"`
	RunID  string              `json:"run_id"`
	Values map[string]*float64 `json:"values"`
}

// toFeatureResponse converts a stored row to its wire form. encoding/json
// rejects NaN, so warmup cells go out as null.
func toFeatureResponse(row contracts.FeatureRow) featureRowResponse {
	values := make(map[string]*float64, len(row.Values))
	for name, v := range row.Values {
		if math.IsNaN(v) {
			values[name] = nil
			continue
		}
		f := v
		values[name] = &f
	}
	return featureRowResponse{
		Symbol: row.Symbol,
		Date:   row.Date.Format("2006-01-02"),
		RunID:  row.RunID,
		Values: values,
	}
}
