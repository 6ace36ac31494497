package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func TestReadCSV(t *testing.T) {
	// 헤더 대소문자/공백 혼용 + dates 변형 + 천단위 구분자
	input := `Symbol, Dates ,OPEN,High,low,Close,Volume
BTC,2024-01-01,100,110,90,105,"1,000"
BTC,2024-01-02,105,115,95,110,2000
ETH,2024-01-01,10,11,9,10.5,500
`
	tbl, err := ReadCSV(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if tbl.Len() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.Len())
	}
	for _, col := range RequiredNumericColumns {
		if !tbl.HasColumn(col) {
			t.Errorf("missing column %s", col)
		}
	}

	if got := tbl.Column("volume")[0]; got != 1000 {
		t.Errorf("volume[0] = %v, want 1000 (comma separator)", got)
	}
	if got := tbl.Column("close")[2]; got != 10.5 {
		t.Errorf("close[2] = %v, want 10.5", got)
	}
	if got := tbl.DateAt(1).Format("2006-01-02"); got != "2024-01-02" {
		t.Errorf("date[1] = %s, want 2024-01-02", got)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	input := `symbol,date,open,high,low,close
BTC,2024-01-01,1,2,3,4
`
	_, err := ReadCSV(strings.NewReader(input), testLogger())
	if err == nil {
		t.Fatal("expected SchemaError, got nil")
	}
	if !contracts.IsSchemaError(err) {
		t.Fatalf("expected SchemaError, got %T: %v", err, err)
	}

	var se *contracts.SchemaError
	if !errors.As(err, &se) || se.Column != "volume" {
		t.Errorf("expected column=volume, got %+v", se)
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), testLogger())
	if !contracts.IsSchemaError(err) {
		t.Errorf("expected SchemaError for empty input, got %v", err)
	}
}

func TestReadCSVEmptyCellIsNull(t *testing.T) {
	input := `symbol,date,open,high,low,close,volume
BTC,2024-01-01,1,2,0.5,,100
`
	tbl, err := ReadCSV(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if got := tbl.Column("close")[0]; !math.IsNaN(got) {
		t.Errorf("empty cell = %v, want NaN", got)
	}
}

func TestReadCSVUnknownColumns(t *testing.T) {
	// market_cap은 숫자 → 유지, category는 전부 문자 → 버림
	input := `symbol,date,open,high,low,close,volume,market_cap,category
BTC,2024-01-01,1,2,0.5,1.5,100,50000,layer1
BTC,2024-01-02,1.5,3,1,2.5,200,60000,layer1
`
	tbl, err := ReadCSV(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if !tbl.HasColumn("market_cap") {
		t.Error("numeric extra column market_cap dropped")
	}
	if got := tbl.Column("market_cap")[1]; got != 60000 {
		t.Errorf("market_cap[1] = %v, want 60000", got)
	}
	if tbl.HasColumn("category") {
		t.Error("non-numeric column category kept")
	}
}

func TestReadCSVSkipsBadRows(t *testing.T) {
	input := `symbol,date,open,high,low,close,volume
BTC,2024-01-01,1,2,0.5,1.5,100
,2024-01-02,1,2,0.5,1.5,100
BTC,not-a-date,1,2,0.5,1.5,100
BTC,2024-01-03,1,2,0.5,1.5,100
`
	tbl, err := ReadCSV(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("rows = %d, want 2 (bad rows skipped)", tbl.Len())
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"1.5", 1.5, true},
		{" 2 ", 2, true},
		{"1,234.5", 1234.5, true},
		{"", math.NaN(), true},
		{"nan", math.NaN(), true},
		{"NaN", math.NaN(), true},
		{"null", math.NaN(), true},
		{"N/A", math.NaN(), true},
		{"abc", math.NaN(), false},
		{"-0.001", -0.001, true},
	}

	for _, tc := range tests {
		got, ok := parseValue(tc.input)
		if ok != tc.wantOK {
			t.Errorf("parseValue(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
		}
		if math.IsNaN(tc.want) {
			if !math.IsNaN(got) {
				t.Errorf("parseValue(%q) = %v, want NaN", tc.input, got)
			}
		} else if got != tc.want {
			t.Errorf("parseValue(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"2024-01-15", true},
		{"2024-01-15 09:30:00", true},
		{"2024-01-15T09:30:00Z", true},
		{" 2024-01-15 ", true},
		{"15/01/2024", false},
		{"yesterday", false},
		{"", false},
	}

	for _, tc := range tests {
		_, err := parseDate(tc.input)
		if tc.valid && err != nil {
			t.Errorf("parseDate(%q) unexpected error: %v", tc.input, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("parseDate(%q) expected error, got nil", tc.input)
		}
	}
}

func TestLoadCSVFileMissing(t *testing.T) {
	_, err := LoadCSV("/nonexistent/dataset.csv", testLogger())
	if err == nil {
		t.Error("expected error for missing file")
	}
}
