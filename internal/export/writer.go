package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/pipeline"
	"github.com/wonny/kairos/pkg/logger"
)

// 산출물 파일명 규칙 (SSOT): 기존 데이터 소비자와 호환 유지

// ProcessedName is the fully enriched + scaled artifact for one instrument
func ProcessedName(symbol string) string { return strings.ToLower(symbol) + "_processed.csv" }

// IndicatorsName is the indicator-stage artifact for one instrument
func IndicatorsName(symbol string) string { return symbol + "_with_indicators.csv" }

// RawName is the raw per-instrument OHLCV export
func RawName(symbol string) string { return symbol + "_data.csv" }

// Writer materializes tables and run summaries under one output directory
type Writer struct {
	outputDir string
	logger    *logger.Logger
}

// NewWriter creates a Writer rooted at outputDir
func NewWriter(outputDir string, log *logger.Logger) *Writer {
	return &Writer{outputDir: outputDir, logger: log}
}

// OutputDir returns the artifact root
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// WriteTable writes one table as a CSV artifact and returns its path.
// 헤더는 symbol, date, 숫자 컬럼 순서 그대로. null은 빈 칸으로 나가고
// 로더가 다시 null로 읽는다.
func (w *Writer) WriteTable(name string, t *dataset.Table) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	cols := t.Columns()
	series := make([][]float64, len(cols))
	for i, col := range cols {
		series[i] = t.Column(col)
	}

	cw := csv.NewWriter(f)
	header := append([]string{dataset.ColSymbol, dataset.ColDate}, cols...)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		record[0] = t.SymbolAt(i)
		record[1] = t.DateAt(i).Format("2006-01-02")
		for c := range cols {
			record[c+2] = formatValue(series[c][i])
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", name, err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path": path,
		"rows": t.Len(),
	}).Debug("Wrote artifact")
	return path, nil
}

// Persist writes the processed artifact for one instrument. The run ID
// is not part of the file name, so only the last run's artifact survives.
// pipeline.Persister 구현: 오케스트레이터의 Persisted 단계가 이걸 부름
func (w *Writer) Persist(ctx context.Context, runID, symbol string, t *dataset.Table) error {
	_, err := w.WriteTable(ProcessedName(symbol), t)
	return err
}

// RunSummary is the YAML artifact describing one batch run
type RunSummary struct {
	RunID       string              `yaml:"run_id"`
	ConfigHash  string              `yaml:"config_hash"`
	StartedAt   time.Time           `yaml:"started_at"`
	Duration    string              `yaml:"duration"`
	Succeeded   int                 `yaml:"succeeded"`
	Skipped     int                 `yaml:"skipped"`
	Instruments []InstrumentSummary `yaml:"instruments"`
}

// InstrumentSummary is one instrument's line in the run summary
type InstrumentSummary struct {
	Symbol string `yaml:"symbol"`
	Status string `yaml:"status"`
	Stage  string `yaml:"stage,omitempty"`
	Rows   int    `yaml:"rows,omitempty"`
	Reason string `yaml:"reason,omitempty"`
}

// WriteRunSummary writes run_summary.yaml (마지막 런이 덮어씀)
func (w *Writer) WriteRunSummary(run *pipeline.RunResult) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := RunSummary{
		RunID:      run.RunID,
		ConfigHash: run.ConfigHash,
		StartedAt:  run.StartedAt,
		Duration:   run.Duration.String(),
		Succeeded:  run.Succeeded,
		Skipped:    run.Skipped,
	}
	for _, res := range run.Results {
		inst := InstrumentSummary{
			Symbol: res.Symbol,
			Status: "processed",
			Stage:  string(res.Stage),
			Rows:   res.Rows,
		}
		if res.Skipped {
			inst.Status = "skipped"
			inst.Reason = res.Reason
		}
		summary.Instruments = append(summary.Instruments, inst)
	}

	data, err := yaml.Marshal(&summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}

	path := filepath.Join(w.outputDir, "run_summary.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run summary: %w", err)
	}
	return path, nil
}

// formatValue renders one cell; shortest representation that round-trips
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
