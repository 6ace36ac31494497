package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/wonny/kairos/internal/contracts"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// buildTable은 테스트용 2종목 테이블 생성
func buildTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromColumns(
		[]string{"ETH", "BTC", "ETH", "BTC"},
		[]time.Time{day("2024-01-02"), day("2024-01-01"), day("2024-01-01"), day("2024-01-02")},
		[]string{"close", "volume"},
		map[string][]float64{
			"close":  {20, 100, 19, 110},
			"volume": {2, 10, 1, 11},
		},
	)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}
	return tbl
}

func TestFromColumnsMismatch(t *testing.T) {
	_, err := FromColumns(
		[]string{"BTC"},
		[]time.Time{day("2024-01-01"), day("2024-01-02")},
		nil, nil,
	)
	if err == nil {
		t.Error("expected error for symbol/date length mismatch")
	}

	_, err = FromColumns(
		[]string{"BTC", "BTC"},
		[]time.Time{day("2024-01-01"), day("2024-01-02")},
		[]string{"close"},
		map[string][]float64{"close": {1}},
	)
	if err == nil {
		t.Error("expected error for short column")
	}
}

func TestSortBySymbolDate(t *testing.T) {
	tbl := buildTable(t)
	tbl.SortBySymbolDate()

	wantSymbols := []string{"BTC", "BTC", "ETH", "ETH"}
	wantCloses := []float64{100, 110, 19, 20}
	for i := range wantSymbols {
		if tbl.SymbolAt(i) != wantSymbols[i] {
			t.Errorf("row %d: symbol = %s, want %s", i, tbl.SymbolAt(i), wantSymbols[i])
		}
		if got := tbl.Column("close")[i]; got != wantCloses[i] {
			t.Errorf("row %d: close = %v, want %v", i, got, wantCloses[i])
		}
	}
}

func TestSortStability(t *testing.T) {
	// 동일 (symbol, date) 행은 입력 순서 유지 (dedupe keep-first 전제)
	tbl, err := FromColumns(
		[]string{"BTC", "BTC"},
		[]time.Time{day("2024-01-01"), day("2024-01-01")},
		[]string{"close"},
		map[string][]float64{"close": {1, 2}},
	)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}

	tbl.SortBySymbolDate()
	if got := tbl.Column("close"); got[0] != 1 || got[1] != 2 {
		t.Errorf("stable sort violated: close = %v", got)
	}
}

func TestDeduplicateDates(t *testing.T) {
	tbl, err := FromColumns(
		[]string{"BTC", "BTC", "BTC", "ETH"},
		[]time.Time{day("2024-01-01"), day("2024-01-01"), day("2024-01-02"), day("2024-01-01")},
		[]string{"close"},
		map[string][]float64{"close": {1, 2, 3, 4}},
	)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}

	removed := tbl.DeduplicateDates()
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if tbl.Len() != 3 {
		t.Fatalf("len = %d, want 3", tbl.Len())
	}
	// keep-first: 첫 번째 2024-01-01 BTC 행(close=1)이 남아야 함
	if got := tbl.Column("close")[0]; got != 1 {
		t.Errorf("expected first occurrence kept, close = %v", got)
	}

	// 멱등성
	if removed := tbl.DeduplicateDates(); removed != 0 {
		t.Errorf("second dedupe removed %d rows, want 0", removed)
	}
}

func TestGroupBySymbol(t *testing.T) {
	tbl := buildTable(t)
	groups := tbl.GroupBySymbol()

	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	// 최초 등장 순서: ETH가 먼저
	if groups[0].Symbol != "ETH" || groups[1].Symbol != "BTC" {
		t.Errorf("group order = [%s, %s], want [ETH, BTC]", groups[0].Symbol, groups[1].Symbol)
	}

	// 그룹 내 상대 순서 유지
	eth := groups[0].Table
	if eth.Len() != 2 {
		t.Fatalf("ETH rows = %d, want 2", eth.Len())
	}
	if got := eth.Column("close"); got[0] != 20 || got[1] != 19 {
		t.Errorf("ETH close = %v, want [20 19]", got)
	}

	// 그룹은 복사본: 수정이 원본에 영향 없어야 함
	eth.Column("close")[0] = 999
	if tbl.Column("close")[0] == 999 {
		t.Error("group mutation leaked into source table")
	}
}

func TestSetColumn(t *testing.T) {
	tbl := buildTable(t)

	if err := tbl.SetColumn("rsi", []float64{1, 2, 3}); err == nil {
		t.Error("expected error for wrong column length")
	}

	vals := []float64{1, 2, 3, 4}
	if err := tbl.SetColumn("rsi", vals); err != nil {
		t.Fatalf("SetColumn failed: %v", err)
	}
	if !tbl.HasColumn("rsi") {
		t.Error("rsi column missing after SetColumn")
	}

	cols := tbl.Columns()
	if cols[len(cols)-1] != "rsi" {
		t.Errorf("new column not appended to order: %v", cols)
	}

	// 교체 시 순서 유지
	if err := tbl.SetColumn("close", []float64{5, 6, 7, 8}); err != nil {
		t.Fatalf("SetColumn replace failed: %v", err)
	}
	if got := tbl.Columns(); got[0] != "close" {
		t.Errorf("column order changed on replace: %v", got)
	}
}

func TestDropColumn(t *testing.T) {
	tbl := buildTable(t)
	tbl.DropColumn("volume")

	if tbl.HasColumn("volume") {
		t.Error("volume still present after drop")
	}
	if got := tbl.Columns(); len(got) != 1 || got[0] != "close" {
		t.Errorf("columns = %v, want [close]", got)
	}

	// 없는 컬럼 drop은 no-op
	tbl.DropColumn("nope")
}

func TestClone(t *testing.T) {
	tbl := buildTable(t)
	clone := tbl.Clone()

	clone.Column("close")[0] = 999
	if tbl.Column("close")[0] == 999 {
		t.Error("clone shares backing array with source")
	}

	if err := clone.SetColumn("extra", make([]float64, clone.Len())); err != nil {
		t.Fatalf("SetColumn failed: %v", err)
	}
	if tbl.HasColumn("extra") {
		t.Error("clone column order leaked into source")
	}
}

func TestFilter(t *testing.T) {
	tbl := buildTable(t)
	btc := tbl.Filter(func(i int) bool { return tbl.SymbolAt(i) == "BTC" })

	if btc.Len() != 2 {
		t.Fatalf("filtered rows = %d, want 2", btc.Len())
	}
	if got := btc.Column("close"); got[0] != 100 || got[1] != 110 {
		t.Errorf("filtered close = %v, want [100 110]", got)
	}
}

func TestFromBarsRoundTrip(t *testing.T) {
	bars := []contracts.Bar{
		{Symbol: "BTC", Date: day("2024-01-01"), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Symbol: "BTC", Date: day("2024-01-02"), Open: 1.5, High: 3, Low: 1, Close: 2.5, Volume: 20},
	}

	tbl := FromBars(bars)
	if tbl.Len() != 2 {
		t.Fatalf("len = %d, want 2", tbl.Len())
	}

	got := tbl.Bars()
	for i := range bars {
		if got[i] != bars[i] {
			t.Errorf("bar %d = %+v, want %+v", i, got[i], bars[i])
		}
	}
}

func TestUniqueSymbols(t *testing.T) {
	tbl := buildTable(t)
	syms := tbl.UniqueSymbols()
	if len(syms) != 2 || syms[0] != "ETH" || syms[1] != "BTC" {
		t.Errorf("symbols = %v, want [ETH BTC]", syms)
	}
}

func TestNaNSurvivesGather(t *testing.T) {
	tbl, err := FromColumns(
		[]string{"BTC", "BTC"},
		[]time.Time{day("2024-01-01"), day("2024-01-02")},
		[]string{"close"},
		map[string][]float64{"close": {math.NaN(), 2}},
	)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}

	groups := tbl.GroupBySymbol()
	if got := groups[0].Table.Column("close")[0]; !math.IsNaN(got) {
		t.Errorf("NaN not preserved through grouping, got %v", got)
	}
}
