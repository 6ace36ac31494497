package trends

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the artifact name for one instrument's interest series
func FileName(name string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "_google_trends.csv"
}

// SaveCSV writes the interest series as an artifact and returns its path.
// 헤더: timestamp + 검색어 컬럼들
func (c *Client) SaveCSV(dir string, s *InterestSeries) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(s.Name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := append([]string{"timestamp"}, s.Terms...)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range s.Points {
		record := make([]string, len(header))
		record[0] = p.Date.Format("2006-01-02")
		for i := range s.Terms {
			if i < len(p.Values) {
				record[i+1] = strconv.Itoa(p.Values[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"path":   path,
		"points": len(s.Points),
	}).Info("Search interest saved")
	return path, nil
}
