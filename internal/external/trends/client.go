package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// Client fetches interest-over-time series from the trends API.
// 비공식 2단계 프로토콜: explore로 위젯 토큰을 받고 widgetdata로 시계열 조회
// ⭐ SSOT: 검색 관심도 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new trends client from config
func NewClient(cfg config.TrendsConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
	}
}

// InterestPoint is one sampled date with a value per search term
type InterestPoint struct {
	Date   time.Time
	Values []int
}

// InterestSeries is interest-over-time for one instrument name
type InterestSeries struct {
	Name   string
	Terms  []string
	Points []InterestPoint
}

// SearchTerms builds the query set for one instrument name
func SearchTerms(name string) []string {
	return []string{name, name + " crypto", name + " price"}
}

type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time  string `json:"time"`
			Value []int  `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// FetchInterestOverTime fetches interest for name over [from, to]
func (c *Client) FetchInterestOverTime(ctx context.Context, name string, from, to time.Time) (*InterestSeries, error) {
	terms := SearchTerms(name)

	token, request, err := c.explore(ctx, terms, from, to)
	if err != nil {
		return nil, &contracts.CollaboratorError{Service: "trends", Err: err}
	}

	points, err := c.widgetData(ctx, token, request)
	if err != nil {
		return nil, &contracts.CollaboratorError{Service: "trends", Err: err}
	}
	if len(points) == 0 {
		return nil, &contracts.CollaboratorError{Service: "trends", Err: fmt.Errorf("empty series for %q", name)}
	}

	c.logger.WithFields(map[string]interface{}{
		"name":   name,
		"points": len(points),
	}).Debug("Fetched search interest")
	return &InterestSeries{Name: name, Terms: terms, Points: points}, nil
}

// explore requests the TIMESERIES widget token
func (c *Client) explore(ctx context.Context, terms []string, from, to time.Time) (string, json.RawMessage, error) {
	items := make([]map[string]string, len(terms))
	timeframe := from.Format("2006-01-02") + " " + to.Format("2006-01-02")
	for i, term := range terms {
		items[i] = map[string]string{"keyword": term, "geo": "", "time": timeframe}
	}
	req, err := json.Marshal(map[string]interface{}{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshal explore request: %w", err)
	}

	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "360")
	params.Set("req", string(req))

	body, err := c.getJSON(ctx, c.baseURL+"/explore?"+params.Encode())
	if err != nil {
		return "", nil, err
	}

	var result exploreResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", nil, fmt.Errorf("decode explore response: %w", err)
	}

	for _, w := range result.Widgets {
		if w.ID == "TIMESERIES" {
			return w.Token, w.Request, nil
		}
	}
	return "", nil, fmt.Errorf("no TIMESERIES widget in explore response")
}

// widgetData fetches the actual series using the widget token
func (c *Client) widgetData(ctx context.Context, token string, request json.RawMessage) ([]InterestPoint, error) {
	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "360")
	params.Set("token", token)
	params.Set("req", string(request))

	body, err := c.getJSON(ctx, c.baseURL+"/widgetdata/multiline?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result multilineResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode widget data: %w", err)
	}

	points := make([]InterestPoint, 0, len(result.Default.TimelineData))
	for _, d := range result.Default.TimelineData {
		sec, err := strconv.ParseInt(d.Time, 10, 64)
		if err != nil {
			continue
		}
		points = append(points, InterestPoint{Date: time.Unix(sec, 0).UTC(), Values: d.Value})
	}
	return points, nil
}

// getJSON fetches one endpoint and strips the anti-hijacking junk prefix
func (c *Client) getJSON(ctx context.Context, fullURL string) ([]byte, error) {
	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return stripJSONPrefix(buf.Bytes()), nil
}

// stripJSONPrefix drops everything before the first JSON bracket.
// 응답이 ")]}'," 로 시작함
func stripJSONPrefix(b []byte) []byte {
	for i, c := range b {
		if c == '{' || c == '[' {
			return b[i:]
		}
	}
	return b
}
