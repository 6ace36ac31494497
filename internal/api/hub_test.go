package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func TestProgressHubPublish(t *testing.T) {
	hub := NewProgressHub(testLogger())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	// 등록은 서버 고루틴에서 일어나므로 잠깐 기다린다
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(contracts.ProgressEvent{
		RunID:     "run-1",
		Symbol:    "BTC",
		Stage:     contracts.StagePersisted,
		Succeeded: true,
		Done:      1,
		Total:     2,
		Timestamp: time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var event contracts.ProgressEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if event.RunID != "run-1" || event.Symbol != "BTC" {
		t.Errorf("Unexpected event: %+v", event)
	}
	if event.Stage != contracts.StagePersisted || !event.Succeeded {
		t.Errorf("Unexpected stage info: %+v", event)
	}
	if event.Done != 1 || event.Total != 2 {
		t.Errorf("Unexpected progress counters: %+v", event)
	}
}

func TestProgressHubPublishWithoutClients(t *testing.T) {
	hub := NewProgressHub(testLogger())

	// 연결된 클라이언트가 없어도 Publish는 그냥 지나가야 한다
	hub.Publish(contracts.ProgressEvent{RunID: "run-1", Symbol: "ETH", Stage: contracts.StageLoaded})

	if hub.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", hub.ClientCount())
	}
}

func TestProgressHubClientDisconnect(t *testing.T) {
	hub := NewProgressHub(testLogger())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client never removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
