package targets

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/pipelineconfig"
)

var nan = math.NaN()

func almostEq(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) < 1e-9
}

func checkSeries(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length = %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if !almostEq(got[i], want[i]) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestFutureClose(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	checkSeries(t, "h=1", FutureClose(src, 1), []float64{2, 3, 4, nan})
	checkSeries(t, "h=3", FutureClose(src, 3), []float64{4, nan, nan, nan})
	// 지평이 시계열보다 길면 전부 null
	checkSeries(t, "h=9", FutureClose(src, 9), []float64{nan, nan, nan, nan})
}

func TestFutureReturn(t *testing.T) {
	src := []float64{10, 20, 0, 30}
	// i=1: 미래가 0이어도 수익률은 -1로 정의됨. i=2: 기준가 0 → null
	checkSeries(t, "ret", FutureReturn(src, 1), []float64{1, -1, nan, nan})
}

func TestFutureReturnNaNBase(t *testing.T) {
	src := []float64{nan, 20, 30}
	checkSeries(t, "ret", FutureReturn(src, 1), []float64{nan, 0.5, nan})
}

func TestDirection(t *testing.T) {
	got := Direction([]float64{0.5, -0.2, 0, nan})
	// 0 수익률은 하락 취급, null은 null 유지
	checkSeries(t, "dir", got, []float64{1, 0, 0, nan})
}

func TestForwardVolatility(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5}
	s := math.Sqrt(0.5)
	checkSeries(t, "h=2", ForwardVolatility(src, 2), []float64{s, s, s, nan, nan})

	// 표본 표준편차는 값 2개가 필요: h=1이면 전부 null
	checkSeries(t, "h=1", ForwardVolatility(src, 1), []float64{nan, nan, nan, nan, nan})
}

func TestForwardVolatilityNaNInWindow(t *testing.T) {
	src := []float64{1, 2, nan, 4, 5}
	s := math.Sqrt(0.5)
	// 앞 윈도우에 null이 끼면 그 행은 null
	checkSeries(t, "vol", ForwardVolatility(src, 2), []float64{nan, nan, s, nan, nan})
}

func labelTable(t *testing.T, closes []float64) *dataset.Table {
	t.Helper()
	n := len(closes)
	symbols := make([]string, n)
	dates := make([]time.Time, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range symbols {
		symbols[i] = "BTC"
		dates[i] = base.AddDate(0, 0, i)
	}

	tbl, err := dataset.FromColumns(symbols, dates, []string{dataset.ColClose},
		map[string][]float64{dataset.ColClose: closes})
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}
	return tbl
}

func TestLabel(t *testing.T) {
	closes := []float64{100, 110, 105, 120, 115, 130, 125, 140, 135, 150, 145, 160}
	tbl := labelTable(t, closes)
	cfg := pipelineconfig.Targets{PredictionHorizons: []int{1, 3}}

	if err := Label(tbl, cfg); err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	// 컬럼 순서: 지평별로 future_close, return, direction, volatility
	want := []string{
		"future_close_1", "target_return_1", "target_direction_1", "target_volatility_1",
		"future_close_3", "target_return_3", "target_direction_3", "target_volatility_3",
	}
	got := tbl.Columns()[1:]
	if len(got) != len(want) {
		t.Fatalf("derived columns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, got[i], want[i])
		}
	}

	// 정렬 확인: target_return_1[t]은 close[t+1] 기준
	ret1 := tbl.Column("target_return_1")
	for i := 0; i < len(closes)-1; i++ {
		wantRet := closes[i+1]/closes[i] - 1
		if !almostEq(ret1[i], wantRet) {
			t.Errorf("target_return_1[%d] = %v, want %v", i, ret1[i], wantRet)
		}
	}
	// 마지막 행은 미래가 없어 null
	if !math.IsNaN(ret1[len(closes)-1]) {
		t.Errorf("target_return_1 last row = %v, want null", ret1[len(closes)-1])
	}

	// 방향은 return의 부호
	dir1 := tbl.Column("target_direction_1")
	for i := 0; i < len(closes)-1; i++ {
		want := 0.0
		if ret1[i] > 0 {
			want = 1.0
		}
		if dir1[i] != want {
			t.Errorf("target_direction_1[%d] = %v, want %v", i, dir1[i], want)
		}
	}

	// h=1 변동성은 정의되지 않아 전부 null
	vol1 := tbl.Column("target_volatility_1")
	for i := range vol1 {
		if !math.IsNaN(vol1[i]) {
			t.Errorf("target_volatility_1[%d] = %v, want null", i, vol1[i])
		}
	}

	// h=3 변동성: 마지막 3행은 null, 그 앞은 유효
	vol3 := tbl.Column("target_volatility_3")
	for i := 0; i < len(closes)-3; i++ {
		if math.IsNaN(vol3[i]) {
			t.Errorf("target_volatility_3[%d] is null, want value", i)
		}
	}
	for i := len(closes) - 3; i < len(closes); i++ {
		if !math.IsNaN(vol3[i]) {
			t.Errorf("target_volatility_3[%d] = %v, want null", i, vol3[i])
		}
	}
}

func TestLabelPastRowsUnaffected(t *testing.T) {
	// 타깃은 미래만 봄: 과거 행을 바꿔도 그 앞 행 타깃은 그대로
	closes := []float64{100, 110, 105, 120, 115, 130}
	cfg := pipelineconfig.Targets{PredictionHorizons: []int{2}}

	a := labelTable(t, closes)
	if err := Label(a, cfg); err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	changed := append([]float64(nil), closes...)
	changed[0] = 1
	b := labelTable(t, changed)
	if err := Label(b, cfg); err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	// 행 0 이후의 타깃은 행 0의 값에 의존하지 않음
	for _, col := range []string{"future_close_2", "target_volatility_2"} {
		av, bv := a.Column(col), b.Column(col)
		for i := 1; i < len(closes); i++ {
			if !almostEq(av[i], bv[i]) {
				t.Errorf("%s[%d] depends on an earlier close: %v vs %v", col, i, av[i], bv[i])
			}
		}
	}
}

func TestLabelRejectsMultiSymbol(t *testing.T) {
	tbl, err := dataset.FromColumns(
		[]string{"BTC", "ETH"},
		[]time.Time{time.Now(), time.Now()},
		[]string{dataset.ColClose},
		map[string][]float64{dataset.ColClose: {1, 2}},
	)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}
	if err := Label(tbl, pipelineconfig.Targets{PredictionHorizons: []int{1}}); err == nil {
		t.Error("expected error for multi-symbol table")
	}
}

func TestLabelMissingClose(t *testing.T) {
	tbl, err := dataset.FromColumns(
		[]string{"BTC"},
		[]time.Time{time.Now()},
		nil, nil,
	)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}

	err = Label(tbl, pipelineconfig.Targets{PredictionHorizons: []int{1}})
	var se *contracts.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Column != dataset.ColClose {
		t.Errorf("column = %q, want %q", se.Column, dataset.ColClose)
	}
}

func TestIsTargetColumn(t *testing.T) {
	tests := []struct {
		col  string
		want bool
	}{
		{"target_return_1", true},
		{"target_direction_30", true},
		{"future_close_7", true},
		{"close", false},
		{"sma_7", false},
		{"daily_return", false},
	}
	for _, tt := range tests {
		if got := IsTargetColumn(tt.col); got != tt.want {
			t.Errorf("IsTargetColumn(%q) = %v, want %v", tt.col, got, tt.want)
		}
	}
}
