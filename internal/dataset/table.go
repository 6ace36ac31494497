package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/kairos/internal/contracts"
)

// Canonical column names after header normalization
const (
	ColSymbol = "symbol"
	ColDate   = "date"
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

// RequiredNumericColumns are the OHLCV columns every input must carry
var RequiredNumericColumns = []string{ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// Table is a column-oriented tabular store for daily observations.
// ⭐ SSOT: 파이프라인의 모든 단계는 이 타입 하나로 데이터를 주고받음
// 숫자 컬럼은 NaN을 null로 쓰는 []float64, 식별자/날짜는 별도 슬라이스.
type Table struct {
	symbols []string
	dates   []time.Time
	order   []string
	values  map[string][]float64
}

// Group pairs an instrument key with its ordered sub-table
type Group struct {
	Symbol string
	Table  *Table
}

// FromColumns builds a table from row-aligned slices.
// values의 모든 슬라이스 길이는 symbols/dates와 같아야 함
func FromColumns(symbols []string, dates []time.Time, columns []string, values map[string][]float64) (*Table, error) {
	if len(symbols) != len(dates) {
		return nil, fmt.Errorf("row count mismatch: %d symbols, %d dates", len(symbols), len(dates))
	}

	t := &Table{
		symbols: symbols,
		dates:   dates,
		order:   make([]string, 0, len(columns)),
		values:  make(map[string][]float64, len(columns)),
	}
	for _, col := range columns {
		vals, ok := values[col]
		if !ok {
			return nil, fmt.Errorf("column %q listed but not provided", col)
		}
		if len(vals) != len(symbols) {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col, len(vals), len(symbols))
		}
		t.order = append(t.order, col)
		t.values[col] = vals
	}
	return t, nil
}

// FromBars builds a table from raw OHLCV bars
func FromBars(bars []contracts.Bar) *Table {
	n := len(bars)
	t := &Table{
		symbols: make([]string, n),
		dates:   make([]time.Time, n),
		order:   append([]string(nil), RequiredNumericColumns...),
		values: map[string][]float64{
			ColOpen:   make([]float64, n),
			ColHigh:   make([]float64, n),
			ColLow:    make([]float64, n),
			ColClose:  make([]float64, n),
			ColVolume: make([]float64, n),
		},
	}
	for i, b := range bars {
		t.symbols[i] = b.Symbol
		t.dates[i] = b.Date
		t.values[ColOpen][i] = b.Open
		t.values[ColHigh][i] = b.High
		t.values[ColLow][i] = b.Low
		t.values[ColClose][i] = b.Close
		t.values[ColVolume][i] = b.Volume
	}
	return t
}

// Bars converts the OHLCV columns back to raw bars
func (t *Table) Bars() []contracts.Bar {
	bars := make([]contracts.Bar, t.Len())
	for i := range bars {
		bars[i] = contracts.Bar{
			Symbol: t.symbols[i],
			Date:   t.dates[i],
			Open:   t.at(ColOpen, i),
			High:   t.at(ColHigh, i),
			Low:    t.at(ColLow, i),
			Close:  t.at(ColClose, i),
			Volume: t.at(ColVolume, i),
		}
	}
	return bars
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.symbols)
}

// Columns returns the ordered numeric column names (copy)
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// HasColumn reports whether a numeric column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Column returns the backing slice for a numeric column, or nil if absent.
// 호출자는 길이를 바꾸면 안 됨 (공유 슬라이스)
func (t *Table) Column(name string) []float64 {
	return t.values[name]
}

// SetColumn stores a column, appending it to the column order when new.
// The slice is stored without copying.
func (t *Table) SetColumn(name string, vals []float64) error {
	if len(vals) != t.Len() {
		return fmt.Errorf("column %q has %d rows, expected %d", name, len(vals), t.Len())
	}
	if _, exists := t.values[name]; !exists {
		t.order = append(t.order, name)
	}
	t.values[name] = vals
	return nil
}

// DropColumn removes a numeric column if present
func (t *Table) DropColumn(name string) {
	if _, exists := t.values[name]; !exists {
		return
	}
	delete(t.values, name)
	for i, col := range t.order {
		if col == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// SymbolAt returns the instrument key of row i
func (t *Table) SymbolAt(i int) string {
	return t.symbols[i]
}

// DateAt returns the observation date of row i
func (t *Table) DateAt(i int) time.Time {
	return t.dates[i]
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	c := &Table{
		symbols: append([]string(nil), t.symbols...),
		dates:   append([]time.Time(nil), t.dates...),
		order:   append([]string(nil), t.order...),
		values:  make(map[string][]float64, len(t.values)),
	}
	for col, vals := range t.values {
		c.values[col] = append([]float64(nil), vals...)
	}
	return c
}

// Filter returns a new table holding only rows where keep(i) is true.
// Relative row order is preserved.
func (t *Table) Filter(keep func(i int) bool) *Table {
	rows := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.gather(rows)
}

// SortBySymbolDate sorts rows by (symbol, date) ascending, stable.
// 같은 (symbol, date) 행의 상대 순서는 유지됨 (dedupe keep-first 전제)
func (t *Table) SortBySymbolDate() {
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if t.symbols[ia] != t.symbols[ib] {
			return t.symbols[ia] < t.symbols[ib]
		}
		return t.dates[ia].Before(t.dates[ib])
	})
	t.applyPermutation(idx)
}

// DeduplicateDates drops rows repeating a (symbol, calendar date) pair,
// keeping the first occurrence. Returns the number of rows removed.
// 멱등: 두 번 호출해도 결과 동일
func (t *Table) DeduplicateDates() int {
	type key struct {
		sym string
		day string
	}
	seen := make(map[key]bool, t.Len())
	rows := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		k := key{t.symbols[i], t.dates[i].Format("2006-01-02")}
		if seen[k] {
			continue
		}
		seen[k] = true
		rows = append(rows, i)
	}

	removed := t.Len() - len(rows)
	if removed == 0 {
		return 0
	}
	t.replaceWith(t.gather(rows))
	return removed
}

// GroupBySymbol partitions rows by instrument key, preserving relative
// row order within each partition. Groups are ordered by first appearance.
func (t *Table) GroupBySymbol() []Group {
	var keys []string
	rowsBySym := make(map[string][]int)
	for i := 0; i < t.Len(); i++ {
		sym := t.symbols[i]
		if _, seen := rowsBySym[sym]; !seen {
			keys = append(keys, sym)
		}
		rowsBySym[sym] = append(rowsBySym[sym], i)
	}

	groups := make([]Group, 0, len(keys))
	for _, sym := range keys {
		groups = append(groups, Group{Symbol: sym, Table: t.gather(rowsBySym[sym])})
	}
	return groups
}

// UniqueSymbols returns instrument keys in order of first appearance
func (t *Table) UniqueSymbols() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, sym := range t.symbols {
		if !seen[sym] {
			seen[sym] = true
			keys = append(keys, sym)
		}
	}
	return keys
}

// at reads one cell, tolerating a missing column for Bars()
func (t *Table) at(col string, i int) float64 {
	if vals, ok := t.values[col]; ok {
		return vals[i]
	}
	return 0
}

// gather builds a new table from the given source row indices
func (t *Table) gather(rows []int) *Table {
	g := &Table{
		symbols: make([]string, len(rows)),
		dates:   make([]time.Time, len(rows)),
		order:   append([]string(nil), t.order...),
		values:  make(map[string][]float64, len(t.values)),
	}
	for i, r := range rows {
		g.symbols[i] = t.symbols[r]
		g.dates[i] = t.dates[r]
	}
	for col, vals := range t.values {
		out := make([]float64, len(rows))
		for i, r := range rows {
			out[i] = vals[r]
		}
		g.values[col] = out
	}
	return g
}

// applyPermutation reorders all rows so that new row i = old row idx[i]
func (t *Table) applyPermutation(idx []int) {
	t.replaceWith(t.gather(idx))
}

func (t *Table) replaceWith(other *Table) {
	t.symbols = other.symbols
	t.dates = other.dates
	t.order = other.order
	t.values = other.values
}
