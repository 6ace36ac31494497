package wikipedia

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SaveCSV writes the daily edit series as an artifact and returns its path.
// 파일명에 수집일이 들어감: {safe_name}_wikipedia_edits_{YYYYMMDD}.csv
func (c *Client) SaveCSV(dir, title string, series []DailyEdits) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(title, time.Now().UTC()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"date", "edits", "size_change"}); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, d := range series {
		record := []string{
			d.Date.Format("2006-01-02"),
			strconv.Itoa(d.Edits),
			strconv.FormatInt(d.SizeChange, 10),
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
		"path": path,
		"days": len(series),
	}).Info("Wikipedia edit history saved")
	return path, nil
}
