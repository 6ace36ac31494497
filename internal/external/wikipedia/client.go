package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// 페이지네이션 상한 (rvlimit=max 기준 500 리비전/페이지)
const maxContinuePages = 50

// Client handles communication with the MediaWiki API
// ⭐ SSOT: Wikipedia API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	userAgent  string
}

// NewClient creates a new MediaWiki client from config
func NewClient(cfg config.WikipediaConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
	}
}

// Revision is one edit of a page, oldest first after FetchEditHistory
type Revision struct {
	ID         int64
	ParentID   int64
	Timestamp  time.Time
	User       string
	Size       int64
	SizeChange int64
	Comment    string
}

// DailyEdits buckets one UTC day of edit activity
type DailyEdits struct {
	Date       time.Time
	Edits      int
	SizeChange int64
}

type apiRevision struct {
	RevID    int64  `json:"revid"`
	ParentID int64  `json:"parentid"`
	Ts       string `json:"timestamp"`
	User     string `json:"user"`
	Size     int64  `json:"size"`
	Comment  string `json:"comment"`
}

type revisionsResponse struct {
	Continue *struct {
		RVContinue string `json:"rvcontinue"`
	} `json:"continue"`
	Query struct {
		Pages []struct {
			Title     string        `json:"title"`
			Missing   bool          `json:"missing"`
			Revisions []apiRevision `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// FetchEditHistory fetches the complete revision list of a page.
// rvcontinue로 전체 이력을 따라가고, 없는 페이지는 (nil, nil)
func (c *Client) FetchEditHistory(ctx context.Context, title string) ([]Revision, error) {
	var raw []apiRevision
	cont := ""

	for page := 0; page < maxContinuePages; page++ {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("format", "json")
		params.Set("formatversion", "2")
		params.Set("prop", "revisions")
		params.Set("titles", title)
		params.Set("rvprop", "ids|timestamp|user|size|comment")
		params.Set("rvlimit", "max")
		if cont != "" {
			params.Set("rvcontinue", cont)
		}

		resp, err := c.httpClient.GetWithHeaders(ctx, c.baseURL+"?"+params.Encode(), map[string]string{
			"User-Agent": c.userAgent,
		})
		if err != nil {
			return nil, &contracts.CollaboratorError{Service: "wikipedia", Err: err}
		}

		var result revisionsResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		status := resp.StatusCode
		resp.Body.Close()

		if status != http.StatusOK {
			return nil, &contracts.CollaboratorError{Service: "wikipedia", Err: fmt.Errorf("unexpected status code: %d", status)}
		}
		if decodeErr != nil {
			return nil, &contracts.CollaboratorError{Service: "wikipedia", Err: fmt.Errorf("decode response: %w", decodeErr)}
		}

		if len(result.Query.Pages) == 0 || result.Query.Pages[0].Missing {
			c.logger.WithField("title", title).Warn("No edit history found")
			return nil, nil
		}

		raw = append(raw, result.Query.Pages[0].Revisions...)

		if result.Continue == nil {
			break
		}
		cont = result.Continue.RVContinue
	}

	revs := buildRevisions(raw)
	c.logger.WithFields(map[string]interface{}{
		"title": title,
		"count": len(revs),
	}).Debug("Fetched edit history")
	return revs, nil
}

// buildRevisions parses timestamps, sorts oldest first and derives size deltas.
// 최초 리비전의 delta는 생성 크기 그 자체
func buildRevisions(raw []apiRevision) []Revision {
	revs := make([]Revision, 0, len(raw))
	for _, r := range raw {
		ts, err := time.Parse(time.RFC3339, r.Ts)
		if err != nil {
			continue
		}
		revs = append(revs, Revision{
			ID:        r.RevID,
			ParentID:  r.ParentID,
			Timestamp: ts,
			User:      r.User,
			Size:      r.Size,
			Comment:   r.Comment,
		})
	}

	sort.Slice(revs, func(i, j int) bool { return revs[i].Timestamp.Before(revs[j].Timestamp) })

	for i := range revs {
		if i == 0 {
			revs[i].SizeChange = revs[i].Size
			continue
		}
		revs[i].SizeChange = revs[i].Size - revs[i-1].Size
	}
	return revs
}

// BucketDaily aggregates revisions per UTC calendar day, ascending
func BucketDaily(revs []Revision) []DailyEdits {
	byDay := make(map[string]*DailyEdits)
	var keys []string

	for _, r := range revs {
		day := r.Timestamp.UTC().Format("2006-01-02")
		agg, ok := byDay[day]
		if !ok {
			date, _ := time.Parse("2006-01-02", day)
			agg = &DailyEdits{Date: date}
			byDay[day] = agg
			keys = append(keys, day)
		}
		agg.Edits++
		agg.SizeChange += r.SizeChange
	}

	sort.Strings(keys)
	out := make([]DailyEdits, len(keys))
	for i, k := range keys {
		out[i] = *byDay[k]
	}
	return out
}

// SafeName converts a page title to its artifact name fragment
func SafeName(title string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}

// FileName is the artifact name for one page's edit history on a given day
func FileName(title string, now time.Time) string {
	return fmt.Sprintf("%s_wikipedia_edits_%s.csv", SafeName(title), now.Format("20060102"))
}
