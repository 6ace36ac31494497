package pipeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/pipelineconfig"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
)

var nan = math.NaN()

func almostEq(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) < 1e-9
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

// testConfig는 짧은 시계열로도 돌 수 있게 윈도우를 줄인 설정
func testConfig() *pipelineconfig.Config {
	cfg := pipelineconfig.Default()
	cfg.Indicators.MAWindows = []int{3}
	cfg.Indicators.RSIPeriod = 3
	cfg.Indicators.MACD = pipelineconfig.MACD{Fast: 3, Slow: 5, Signal: 2}
	cfg.Indicators.Bollinger = pipelineconfig.Bollinger{Period: 3, Multiplier: 2}
	cfg.Indicators.Stochastic = pipelineconfig.Stochastic{KPeriod: 3, DPeriod: 2}
	cfg.Indicators.MomentumWindows = []int{3}
	cfg.Indicators.VolatilityWindows = []int{3}
	cfg.Targets.PredictionHorizons = []int{1, 2}
	cfg.Cleaning.MinimumRecords = 5
	return cfg
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustTable(t *testing.T, symbols []string, dates []time.Time, values map[string][]float64) *dataset.Table {
	t.Helper()
	order := make([]string, 0, len(values))
	for _, col := range append([]string{}, dataset.RequiredNumericColumns...) {
		if _, ok := values[col]; ok {
			order = append(order, col)
		}
	}
	for col := range values {
		seen := false
		for _, o := range order {
			if o == col {
				seen = true
				break
			}
		}
		if !seen {
			order = append(order, col)
		}
	}
	tbl, err := dataset.FromColumns(symbols, dates, order, values)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}
	return tbl
}

func TestCleanDropsInvalidRows(t *testing.T) {
	symbols := []string{"BTC", "BTC", "BTC", "BTC", "BTC", "BTC"}
	dates := make([]time.Time, 6)
	for i := range dates {
		dates[i] = day("2024-01-01").AddDate(0, 0, i)
	}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen:   {1, 1, 1, 1, 1, 1},
		dataset.ColHigh:   {2, 2, 2, 2, 2, 2},
		dataset.ColLow:    {1, 1, 1, 1, 1, 1},
		dataset.ColClose:  {10, 0, -5, nan, 11, 12},
		dataset.ColVolume: {5, 5, 5, 5, -1, nan},
	})

	p := NewPolicy(testConfig(), testLogger())
	cleaned, stats, err := p.Clean(tbl)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	// close<=0, null close, volume<0, null volume 행이 모두 빠져야 함
	if cleaned.Len() != 1 {
		t.Fatalf("rows = %d, want 1", cleaned.Len())
	}
	if got := cleaned.Column(dataset.ColClose)[0]; got != 10 {
		t.Errorf("surviving close = %v, want 10", got)
	}
	if stats.InvalidRows != 5 {
		t.Errorf("invalid rows = %d, want 5", stats.InvalidRows)
	}
}

func TestCleanFillRespectsGroupBoundary(t *testing.T) {
	symbols := []string{"AAA", "AAA", "BBB", "BBB"}
	dates := []time.Time{
		day("2024-01-01"), day("2024-01-02"),
		day("2024-01-01"), day("2024-01-02"),
	}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen:   {1, 1, 1, 1},
		dataset.ColHigh:   {2, 2, 2, 2},
		dataset.ColLow:    {1, 1, 1, 1},
		dataset.ColClose:  {10, 11, 20, 21},
		dataset.ColVolume: {5, 5, 5, 5},
		"sma_3":           {1, nan, nan, 2},
	})

	p := NewPolicy(testConfig(), testLogger())
	cleaned, stats, err := p.Clean(tbl)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	// AAA 둘째 행은 ffill로 채워지고, BBB 첫 행은 그룹 경계 때문에
	// 채워지지 못해 필수 컬럼 드랍으로 빠져야 함
	if stats.FilledCells != 1 {
		t.Errorf("filled cells = %d, want 1", stats.FilledCells)
	}
	if stats.RequiredRows != 1 {
		t.Errorf("required-drop rows = %d, want 1", stats.RequiredRows)
	}
	if cleaned.Len() != 3 {
		t.Fatalf("rows = %d, want 3", cleaned.Len())
	}

	wantClose := []float64{10, 11, 21}
	wantSMA := []float64{1, 1, 2}
	for i := range wantClose {
		if got := cleaned.Column(dataset.ColClose)[i]; got != wantClose[i] {
			t.Errorf("close[%d] = %v, want %v", i, got, wantClose[i])
		}
		if got := cleaned.Column("sma_3")[i]; got != wantSMA[i] {
			t.Errorf("sma_3[%d] = %v, want %v", i, got, wantSMA[i])
		}
	}
}

func TestCleanNeverFillsRawOHLCV(t *testing.T) {
	symbols := []string{"BTC", "BTC"}
	dates := []time.Time{day("2024-01-01"), day("2024-01-02")}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen:   {3, nan},
		dataset.ColHigh:   {4, 4},
		dataset.ColLow:    {2, 2},
		dataset.ColClose:  {10, 11},
		dataset.ColVolume: {5, 5},
	})

	p := NewPolicy(testConfig(), testLogger())
	cleaned, stats, err := p.Clean(tbl)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if stats.FilledCells != 0 {
		t.Errorf("filled cells = %d, want 0", stats.FilledCells)
	}
	if got := cleaned.Column(dataset.ColOpen)[1]; !math.IsNaN(got) {
		t.Errorf("open[1] = %v, want null (raw columns are never filled)", got)
	}
}

func TestCleanIdempotent(t *testing.T) {
	symbols := make([]string, 8)
	dates := make([]time.Time, 8)
	for i := range symbols {
		symbols[i] = "BTC"
		dates[i] = day("2024-01-01").AddDate(0, 0, i)
	}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen:   {1, 1, 1, 1, 1, 1, 1, 1},
		dataset.ColHigh:   {2, 2, 2, 2, 2, 2, 2, 2},
		dataset.ColLow:    {1, 1, 1, 1, 1, 1, 1, 1},
		dataset.ColClose:  {10, -1, 11, 12, 13, 14, 15, 16},
		dataset.ColVolume: {5, 5, 5, 5, 5, 5, 5, 5},
		"sma_3":           {nan, nan, 1, nan, 2, 3, 4, 5},
	})

	p := NewPolicy(testConfig(), testLogger())
	once, stats1, err := p.Clean(tbl)
	if err != nil {
		t.Fatalf("first Clean failed: %v", err)
	}
	if stats1.InvalidRows != 1 || stats1.FilledCells != 1 || stats1.RequiredRows != 1 {
		t.Errorf("first clean stats = %+v, want 1/1/1", stats1)
	}

	twice, stats2, err := p.Clean(once)
	if err != nil {
		t.Fatalf("second Clean failed: %v", err)
	}

	// 두 번째 실행은 아무것도 바꾸지 않아야 함
	if stats2.InvalidRows != 0 || stats2.FilledCells != 0 || stats2.RequiredRows != 0 {
		t.Errorf("second clean changed data: %+v", stats2)
	}
	if once.Len() != twice.Len() {
		t.Fatalf("row count changed: %d to %d", once.Len(), twice.Len())
	}
	for _, col := range once.Columns() {
		a, b := once.Column(col), twice.Column(col)
		for i := range a {
			if !almostEq(a[i], b[i]) {
				t.Errorf("%s[%d] changed: %v to %v", col, i, a[i], b[i])
			}
		}
	}
}

func TestCleanMissingRequiredColumn(t *testing.T) {
	cfg := testConfig()
	cfg.Cleaning.RequiredColumns = []string{"rsi"}

	symbols := []string{"BTC"}
	dates := []time.Time{day("2024-01-01")}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen: {1}, dataset.ColHigh: {2}, dataset.ColLow: {1},
		dataset.ColClose: {10}, dataset.ColVolume: {5},
	})

	p := NewPolicy(cfg, testLogger())
	_, _, err := p.Clean(tbl)
	var se *contracts.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Column != "rsi" {
		t.Errorf("column = %q, want rsi", se.Column)
	}
}

func TestVerifyMinimum(t *testing.T) {
	symbols := []string{"BTC", "BTC", "BTC", "ETH"}
	dates := []time.Time{day("2024-01-01"), day("2024-01-02"), day("2024-01-03"), day("2024-01-01")}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen: {1, 1, 1, 1}, dataset.ColHigh: {2, 2, 2, 2}, dataset.ColLow: {1, 1, 1, 1},
		dataset.ColClose: {10, 11, 12, 20}, dataset.ColVolume: {5, 5, 5, 5},
	})

	cfg := testConfig()
	cfg.Cleaning.MinimumRecords = 3
	p := NewPolicy(cfg, testLogger())

	err := p.VerifyMinimum(tbl)
	var ie *contracts.InsufficientDataError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ie.Symbol != "ETH" || ie.Rows != 1 || ie.Minimum != 3 {
		t.Errorf("error = %+v, want ETH with 1 row", ie)
	}

	// 전부 걸러진 그룹은 심볼을 명시해야 잡힘
	empty := tbl.Filter(func(i int) bool { return false })
	if err := p.VerifyMinimum(empty); err != nil {
		t.Errorf("empty table without explicit symbols should pass, got %v", err)
	}
	if err := p.VerifyMinimum(empty, "BTC"); !contracts.IsInsufficientData(err) {
		t.Errorf("expected InsufficientDataError for explicit symbol, got %v", err)
	}
}

func TestScalePerGroup(t *testing.T) {
	symbols := []string{"AAA", "AAA", "BBB", "BBB"}
	dates := []time.Time{
		day("2024-01-01"), day("2024-01-02"),
		day("2024-01-01"), day("2024-01-02"),
	}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen:   {1, 2, 3, 4},
		dataset.ColHigh:   {2, 3, 4, 5},
		dataset.ColLow:    {0, 1, 2, 3},
		dataset.ColClose:  {10, 20, 5, 15},
		dataset.ColVolume: {7, 7, 7, 7},
	})

	cfg := testConfig()
	cfg.Scaling.FeaturesToScale = []string{dataset.ColClose, dataset.ColVolume}
	p := NewPolicy(cfg, testLogger())

	if err := p.Scale(tbl); err != nil {
		t.Fatalf("Scale failed: %v", err)
	}

	// 그룹별 min-max: AAA는 [10,20], BBB는 [5,15] 기준
	wantClose := []float64{0, 1, 0, 1}
	got := tbl.Column("close_scaled")
	for i := range wantClose {
		if !almostEq(got[i], wantClose[i]) {
			t.Errorf("close_scaled[%d] = %v, want %v", i, got[i], wantClose[i])
		}
	}

	// 상수 컬럼은 0.0
	for i, v := range tbl.Column("volume_scaled") {
		if v != 0 {
			t.Errorf("volume_scaled[%d] = %v, want 0", i, v)
		}
	}

	// 원본 컬럼은 그대로
	if got := tbl.Column(dataset.ColClose)[1]; got != 20 {
		t.Errorf("close[1] = %v, original modified by scaling", got)
	}

	// 피팅 파라미터가 상태에 남아야 함
	mm, ok := p.Scalers().Lookup("AAA", dataset.ColClose)
	if !ok || mm.Min != 10 || mm.Max != 20 {
		t.Errorf("AAA close params = %+v (ok=%v), want {10 20}", mm, ok)
	}
	mm, ok = p.Scalers().Lookup("BBB", dataset.ColClose)
	if !ok || mm.Min != 5 || mm.Max != 15 {
		t.Errorf("BBB close params = %+v (ok=%v), want {5 15}", mm, ok)
	}
}

func TestScaleInPlace(t *testing.T) {
	symbols := []string{"BTC", "BTC"}
	dates := []time.Time{day("2024-01-01"), day("2024-01-02")}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen: {1, 2}, dataset.ColHigh: {2, 3}, dataset.ColLow: {0, 1},
		dataset.ColClose: {10, 30}, dataset.ColVolume: {5, 5},
	})

	cfg := testConfig()
	cfg.Scaling.FeaturesToScale = []string{dataset.ColClose}
	cfg.Scaling.InPlace = true
	p := NewPolicy(cfg, testLogger())

	before := len(tbl.Columns())
	if err := p.Scale(tbl); err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	if got := len(tbl.Columns()); got != before {
		t.Errorf("columns = %d, want %d (in-place adds none)", got, before)
	}
	got := tbl.Column(dataset.ColClose)
	if !almostEq(got[0], 0) || !almostEq(got[1], 1) {
		t.Errorf("close = %v, want [0 1]", got)
	}
}

func TestScaleKeepsNaN(t *testing.T) {
	symbols := []string{"BTC", "BTC", "BTC"}
	dates := []time.Time{day("2024-01-01"), day("2024-01-02"), day("2024-01-03")}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen: {1, nan, 3}, dataset.ColHigh: {2, 2, 4}, dataset.ColLow: {0, 0, 2},
		dataset.ColClose: {10, 20, 30}, dataset.ColVolume: {5, 5, 5},
	})

	cfg := testConfig()
	cfg.Scaling.FeaturesToScale = []string{dataset.ColOpen}
	p := NewPolicy(cfg, testLogger())

	if err := p.Scale(tbl); err != nil {
		t.Fatalf("Scale failed: %v", err)
	}

	got := tbl.Column("open_scaled")
	// 유효값 [1,3] 기준으로 피팅, null은 null 유지
	if !almostEq(got[0], 0) || !math.IsNaN(got[1]) || !almostEq(got[2], 1) {
		t.Errorf("open_scaled = %v, want [0 NaN 1]", got)
	}
}

func TestScaleNeverTouchesTargets(t *testing.T) {
	symbols := []string{"BTC", "BTC"}
	dates := []time.Time{day("2024-01-01"), day("2024-01-02")}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen: {1, 2}, dataset.ColHigh: {2, 3}, dataset.ColLow: {0, 1},
		dataset.ColClose: {10, 30}, dataset.ColVolume: {5, 5},
		"target_return_1": {0.5, nan},
	})

	cfg := testConfig()
	cfg.Scaling.FeaturesToScale = []string{dataset.ColClose, "target_return_1"}
	p := NewPolicy(cfg, testLogger())

	if err := p.Scale(tbl); err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	if tbl.HasColumn("target_return_1_scaled") {
		t.Error("target column was scaled")
	}
	if got := tbl.Column("target_return_1")[0]; got != 0.5 {
		t.Errorf("target_return_1[0] = %v, modified by scaling", got)
	}
}

func TestScaleMissingColumn(t *testing.T) {
	symbols := []string{"BTC"}
	dates := []time.Time{day("2024-01-01")}
	tbl := mustTable(t, symbols, dates, map[string][]float64{
		dataset.ColOpen: {1}, dataset.ColHigh: {2}, dataset.ColLow: {0},
		dataset.ColClose: {10}, dataset.ColVolume: {5},
	})

	cfg := testConfig()
	cfg.Scaling.FeaturesToScale = []string{"rsi"}
	p := NewPolicy(cfg, testLogger())

	err := p.Scale(tbl)
	var se *contracts.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Column != "rsi" {
		t.Errorf("column = %q, want rsi", se.Column)
	}
}
