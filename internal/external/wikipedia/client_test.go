package wikipedia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

func testClient(baseURL string) *Client {
	cfg := &config.Config{LogLevel: "error", LogFormat: "json"}
	log := logger.New(cfg)
	httpClient := httputil.New(cfg, log).DisableRetry()
	return NewClient(config.WikipediaConfig{BaseURL: baseURL, UserAgent: "test-agent"}, httpClient, log)
}

func TestBuildRevisions(t *testing.T) {
	raw := []apiRevision{
		// API는 최신순으로 줌
		{RevID: 3, ParentID: 2, Ts: "2024-01-03T10:00:00Z", User: "carol", Size: 950},
		{RevID: 2, ParentID: 1, Ts: "2024-01-02T10:00:00Z", User: "bob", Size: 1200},
		{RevID: 1, ParentID: 0, Ts: "2024-01-01T10:00:00Z", User: "alice", Size: 1000},
		{RevID: 4, ParentID: 3, Ts: "not-a-timestamp", User: "mallory", Size: 10},
	}

	revs := buildRevisions(raw)
	if len(revs) != 3 {
		t.Fatalf("buildRevisions() kept %d revisions, want 3", len(revs))
	}

	// 오래된 순으로 정렬됨
	if revs[0].ID != 1 || revs[1].ID != 2 || revs[2].ID != 3 {
		t.Errorf("order = [%d %d %d], want [1 2 3]", revs[0].ID, revs[1].ID, revs[2].ID)
	}

	wantDeltas := []int64{1000, 200, -250}
	for i, want := range wantDeltas {
		if revs[i].SizeChange != want {
			t.Errorf("revision %d SizeChange = %d, want %d", revs[i].ID, revs[i].SizeChange, want)
		}
	}
}

func TestBucketDaily(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	revs := []Revision{
		{Timestamp: day1, SizeChange: 100},
		{Timestamp: day1.Add(5 * time.Hour), SizeChange: -30},
		{Timestamp: day1.AddDate(0, 0, 2), SizeChange: 50},
	}

	got := BucketDaily(revs)
	if len(got) != 2 {
		t.Fatalf("BucketDaily() = %d days, want 2", len(got))
	}
	if got[0].Edits != 2 || got[0].SizeChange != 70 {
		t.Errorf("day 0 = %+v, want 2 edits, size 70", got[0])
	}
	if got[1].Edits != 1 || got[1].SizeChange != 50 {
		t.Errorf("day 1 = %+v, want 1 edit, size 50", got[1])
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Errorf("days not ascending: %v, %v", got[0].Date, got[1].Date)
	}
}

func TestBucketDailyEmpty(t *testing.T) {
	if got := BucketDaily(nil); len(got) != 0 {
		t.Errorf("BucketDaily(nil) = %v, want empty", got)
	}
}

func TestFetchEditHistoryPagination(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query().Get("rvcontinue"))

		if r.URL.Query().Get("rvcontinue") == "" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"continue": map[string]string{"rvcontinue": "20240102|2"},
				"query": map[string]interface{}{
					"pages": []map[string]interface{}{{
						"title": "Bitcoin",
						"revisions": []map[string]interface{}{
							{"revid": 2, "parentid": 1, "timestamp": "2024-01-02T00:00:00Z", "user": "bob", "size": 1200},
						},
					}},
				},
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"query": map[string]interface{}{
				"pages": []map[string]interface{}{{
					"title": "Bitcoin",
					"revisions": []map[string]interface{}{
						{"revid": 1, "parentid": 0, "timestamp": "2024-01-01T00:00:00Z", "user": "alice", "size": 1000},
					},
				}},
			},
		})
	}))
	defer srv.Close()

	revs, err := testClient(srv.URL).FetchEditHistory(context.Background(), "Bitcoin")
	if err != nil {
		t.Fatalf("FetchEditHistory: %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("made %d requests, want 2", len(requests))
	}
	if requests[1] != "20240102|2" {
		t.Errorf("second request rvcontinue = %q", requests[1])
	}
	if len(revs) != 2 {
		t.Fatalf("got %d revisions, want 2", len(revs))
	}
	if revs[0].ID != 1 || revs[1].ID != 2 {
		t.Errorf("order = [%d %d], want [1 2]", revs[0].ID, revs[1].ID)
	}
}

func TestFetchEditHistoryMissingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"query": map[string]interface{}{
				"pages": []map[string]interface{}{{"title": "Nocoin", "missing": true}},
			},
		})
	}))
	defer srv.Close()

	revs, err := testClient(srv.URL).FetchEditHistory(context.Background(), "Nocoin")
	if err != nil {
		t.Fatalf("FetchEditHistory: %v", err)
	}
	if revs != nil {
		t.Errorf("missing page should yield nil, got %d revisions", len(revs))
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Bitcoin", "bitcoin"},
		{"Bitcoin Cash", "bitcoin_cash"},
		{"  Shiba Inu ", "shiba_inu"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := SafeName(tt.title); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	if got := FileName("Bitcoin Cash", now); got != "bitcoin_cash_wikipedia_edits_20240305.csv" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestSaveCSV(t *testing.T) {
	dir := t.TempDir()
	c := testClient("http://unused")

	series := []DailyEdits{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Edits: 2, SizeChange: 70},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Edits: 1, SizeChange: -20},
	}

	path, err := c.SaveCSV(dir, "Bitcoin", series)
	if err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("artifact written outside dir: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "date,edits,size_change" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-01-01,2,70" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "2024-01-03,1,-20" {
		t.Errorf("row 2 = %q", lines[2])
	}
}
