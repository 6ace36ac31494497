package pipeline

import (
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/indicators"
	"github.com/wonny/kairos/internal/pipelineconfig"
	"github.com/wonny/kairos/internal/targets"
	"github.com/wonny/kairos/pkg/logger"
)

// MinMax holds fitted min-max parameters for one (instrument, column) pair
type MinMax struct {
	Min float64
	Max float64
}

// ScalerState maps instrument key to fitted per-column parameters.
// ⭐ SSOT: 전역 상태가 아니라 Policy 인스턴스가 소유함 (한 런의 수명)
type ScalerState struct {
	params map[string]map[string]MinMax
}

func newScalerState() *ScalerState {
	return &ScalerState{params: make(map[string]map[string]MinMax)}
}

func (s *ScalerState) put(symbol, column string, mm MinMax) {
	if _, ok := s.params[symbol]; !ok {
		s.params[symbol] = make(map[string]MinMax)
	}
	s.params[symbol][column] = mm
}

// Lookup returns the fitted parameters for one (instrument, column) pair
func (s *ScalerState) Lookup(symbol, column string) (MinMax, bool) {
	mm, ok := s.params[symbol][column]
	return mm, ok
}

// Symbols returns the instrument keys a fit has been recorded for
func (s *ScalerState) Symbols() []string {
	keys := make([]string, 0, len(s.params))
	for sym := range s.params {
		keys = append(keys, sym)
	}
	return keys
}

// Policy applies the cleaning and scaling rules of one pipeline run
type Policy struct {
	cfg     *pipelineconfig.Config
	logger  *logger.Logger
	scalers *ScalerState
}

// NewPolicy creates a cleaning/scaling policy bound to one config
func NewPolicy(cfg *pipelineconfig.Config, log *logger.Logger) *Policy {
	return &Policy{
		cfg:     cfg,
		logger:  log,
		scalers: newScalerState(),
	}
}

// Scalers exposes the fitted state for export and inspection
func (p *Policy) Scalers() *ScalerState {
	return p.scalers
}

// derivedColumns returns the indicator and target columns the config
// produces, filtered to those present in the table
func (p *Policy) derivedColumns(t *dataset.Table) []string {
	all := append(indicators.ColumnNames(p.cfg.Indicators), targets.ColumnNames(p.cfg.Targets)...)
	present := make([]string, 0, len(all))
	for _, col := range all {
		if t.HasColumn(col) {
			present = append(present, col)
		}
	}
	return present
}

// requiredColumns returns the columns a retained row must have values in.
// 설정이 비어 있으면 지표 컬럼 전체 (타깃은 꼬리 행이 정당하게 null)
func (p *Policy) requiredColumns(t *dataset.Table) []string {
	if len(p.cfg.Cleaning.RequiredColumns) > 0 {
		return p.cfg.Cleaning.RequiredColumns
	}
	cols := indicators.ColumnNames(p.cfg.Indicators)
	present := make([]string, 0, len(cols))
	for _, col := range cols {
		if t.HasColumn(col) {
			present = append(present, col)
		}
	}
	return present
}
