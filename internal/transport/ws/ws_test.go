package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/session"
)

func TestHandlerUpgradeAndSessionCreated(t *testing.T) {
	h := &Handler{
		Providers: func(sessionID string) session.Providers { return session.Providers{} },
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, raw, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg["type"] != "session.created" {
		t.Fatalf("first server message type = %v, want session.created", msg["type"])
	}
}

func TestHandlerClosesIdleConnectionWithTimeoutCode(t *testing.T) {
	h := &Handler{
		Providers:   func(sessionID string) session.Providers { return session.Providers{} },
		IdleTimeout: 50 * time.Millisecond,
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Drain session.created, then wait without sending anything.
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("expected connection to close on idle timeout")
	}
	if got := websocket.CloseStatus(err); got != CloseTimeout {
		t.Errorf("CloseStatus() = %d, want %d", got, CloseTimeout)
	}
}

func TestHandlerRejectsUnauthorized(t *testing.T) {
	h := &Handler{Auth: func(r *http.Request) bool { return false }}
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}
