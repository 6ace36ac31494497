package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/logger"
)

// 입력 날짜 포맷 (순서대로 시도)
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadCSV reads a combined dataset file into a Table
func LoadCSV(path string, log *logger.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f, log)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses CSV input with schema validation.
// 요구 컬럼: symbol, date(s), open, high, low, close, volume
// 헤더는 대소문자 무시 + 공백 제거 후 매칭, "dates"는 "date"로 정규화.
// 필수 컬럼이 없으면 SchemaError (배치 전체 중단).
func ReadCSV(r io.Reader, log *logger.Logger) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &contracts.SchemaError{Column: ColSymbol, Reason: "missing (empty input)"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// 헤더 정규화: 소문자 + trim, dates → date
	colIdx := make(map[string]int, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "dates" {
			name = ColDate
		}
		names[i] = name
		if _, dup := colIdx[name]; dup {
			log.WithField("column", name).Warn("Duplicate column in header, first occurrence wins")
			continue
		}
		colIdx[name] = i
	}

	// 1. 필수 컬럼 검증
	for _, required := range append([]string{ColSymbol, ColDate}, RequiredNumericColumns...) {
		if _, ok := colIdx[required]; !ok {
			return nil, contracts.NewSchemaError(required)
		}
	}

	symIdx := colIdx[ColSymbol]
	dateIdx := colIdx[ColDate]

	// 숫자 컬럼 = symbol/date를 제외한 전부 (미지의 컬럼 포함)
	numericCols := make([]string, 0, len(colIdx))
	seenCol := make(map[string]bool, len(colIdx))
	for _, name := range names {
		if name == ColSymbol || name == ColDate || seenCol[name] {
			continue
		}
		seenCol[name] = true
		numericCols = append(numericCols, name)
	}

	var (
		symbols     []string
		dates       []time.Time
		values      = make(map[string][]float64, len(numericCols))
		skippedRows int
		coerced     = make(map[string]int)
		nonEmpty    = make(map[string]int)
		parsedOK    = make(map[string]int)
	)
	for _, col := range numericCols {
		values[col] = []float64{}
	}

	// 2. 행 파싱
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		symbol := strings.TrimSpace(rec[symIdx])
		if symbol == "" {
			skippedRows++
			continue
		}

		date, err := parseDate(rec[dateIdx])
		if err != nil {
			skippedRows++
			continue
		}

		symbols = append(symbols, symbol)
		dates = append(dates, date)
		for _, col := range numericCols {
			raw := rec[colIdx[col]]
			if strings.TrimSpace(raw) != "" {
				nonEmpty[col]++
			}
			v, ok := parseValue(raw)
			if !ok {
				coerced[col]++
			} else if !math.IsNaN(v) {
				parsedOK[col]++
			}
			values[col] = append(values[col], v)
		}
	}

	// 3. 전체가 비숫자인 미지의 컬럼은 버림 (필수 컬럼은 유지)
	kept := make([]string, 0, len(numericCols))
	for _, col := range numericCols {
		if !isRequiredNumeric(col) && nonEmpty[col] > 0 && parsedOK[col] == 0 {
			log.WithField("column", col).Warn("Ignoring non-numeric column")
			delete(values, col)
			continue
		}
		kept = append(kept, col)
	}

	if skippedRows > 0 {
		log.WithField("rows", skippedRows).Warn("Skipped rows with blank symbol or unparseable date")
	}
	for col, n := range coerced {
		if _, ok := values[col]; !ok {
			continue // 컬럼 자체가 버려짐
		}
		log.WithFields(map[string]interface{}{
			"column": col,
			"cells":  n,
		}).Warn("Coerced unparseable values to null")
	}

	t, err := FromColumns(symbols, dates, kept, values)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"rows":    t.Len(),
		"columns": len(kept),
	}).Debug("Dataset loaded")

	return t, nil
}

// parseDate tries the supported layouts in order
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseValue converts one cell to float64.
// 빈 칸/NaN 표기는 null로 정상 처리, 그 외 파싱 실패는 ok=false
func parseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), true
	}
	switch strings.ToLower(s) {
	case "nan", "null", "na", "n/a":
		return math.NaN(), true
	}

	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return v, true
}

func isRequiredNumeric(col string) bool {
	for _, r := range RequiredNumericColumns {
		if col == r {
			return true
		}
	}
	return false
}
