package listing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// Client scrapes a public symbol directory page.
// Groq가 답을 못 줄 때의 이름 해석 폴백
// ⭐ SSOT: 디렉토리 페이지 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new directory scraper from config
func NewClient(cfg config.ListingConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
	}
}

// LookupName scrapes the directory table for the display name of a symbol
func (c *Client) LookupName(ctx context.Context, symbol string) (string, error) {
	resp, err := c.httpClient.GetWithHeaders(ctx, c.baseURL, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	if err != nil {
		return "", &contracts.CollaboratorError{Service: "listing", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &contracts.CollaboratorError{Service: "listing", Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &contracts.CollaboratorError{Service: "listing", Err: fmt.Errorf("parse page: %w", err)}
	}

	name := parseListing(doc, symbol)
	if name == "" {
		return "", &contracts.CollaboratorError{Service: "listing", Err: fmt.Errorf("symbol %s not listed", symbol)}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"name":   name,
	}).Debug("Resolved symbol name from directory")
	return name, nil
}

// parseListing walks the directory table rows.
// 행 구조: 순위 | 이름 | 심볼 | ... (이름 셀에 심볼이 붙는 변형도 처리)
func parseListing(doc *goquery.Document, symbol string) string {
	want := strings.ToUpper(strings.TrimSpace(symbol))
	var name string

	doc.Find("table tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return true
		}

		sym := strings.ToUpper(strings.TrimSpace(cells.Eq(2).Text()))
		candidate := strings.TrimSpace(cells.Eq(1).Text())

		// 이름 셀이 "Bitcoin BTC"처럼 심볼을 포함하는 레이아웃
		if sym == "" || !isSymbolText(sym) {
			fields := strings.Fields(candidate)
			if len(fields) < 2 {
				return true
			}
			sym = strings.ToUpper(fields[len(fields)-1])
			candidate = strings.Join(fields[:len(fields)-1], " ")
		}

		if sym == want && candidate != "" {
			name = candidate
			return false
		}
		return true
	})

	return name
}

// isSymbolText reports whether s looks like a ticker (letters/digits, short)
func isSymbolText(s string) bool {
	if len(s) == 0 || len(s) > 10 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
