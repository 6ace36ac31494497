package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// Fetcher acquires the combined dataset file from a local path or URL
type Fetcher struct {
	client  *httputil.Client
	dataDir string
	logger  *logger.Logger
}

// NewFetcher creates a dataset fetcher
func NewFetcher(client *httputil.Client, dataDir string, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		dataDir: dataDir,
		logger:  log,
	}
}

// Fetch resolves a dataset source to a local file path.
// URL이면 dataDir로 내려받고, 로컬 경로면 존재만 확인
func (f *Fetcher) Fetch(ctx context.Context, source string) (string, error) {
	if !isURL(source) {
		if _, err := os.Stat(source); err != nil {
			return "", fmt.Errorf("dataset file not found: %w", err)
		}
		return source, nil
	}

	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	resp, err := f.client.Get(ctx, source)
	if err != nil {
		return "", fmt.Errorf("failed to download dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dataset download returned status %d", resp.StatusCode)
	}

	dest := filepath.Join(f.dataDir, downloadName(source))

	// 임시 파일에 쓰고 rename (부분 다운로드 잔존 방지)
	tmp, err := os.CreateTemp(f.dataDir, "download-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move dataset into place: %w", err)
	}

	f.logger.WithFields(map[string]interface{}{
		"source": source,
		"path":   dest,
		"bytes":  written,
	}).Info("Dataset downloaded")

	return dest, nil
}

// Load fetches the source and parses it into a Table
func (f *Fetcher) Load(ctx context.Context, source string) (*Table, error) {
	path, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return LoadCSV(path, f.logger)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// downloadName derives a local filename from the URL path
func downloadName(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return "dataset.csv"
	}
	name := filepath.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "dataset.csv"
	}
	return name
}
