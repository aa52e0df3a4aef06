package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestFeedStreamURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"wss endpoint", "wss://stream.binance.com:9443", "wss://stream.binance.com:9443/stream?streams=btcusdt%40trade"},
		{"plaintext ws", "ws://127.0.0.1:8080", "ws://127.0.0.1:8080/stream?streams=btcusdt%40trade"},
		{"schemeless defaults to wss", "stream.binance.com:9443", "wss://stream.binance.com:9443/stream?streams=btcusdt%40trade"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFeed(FeedConfig{Endpoint: tt.endpoint, Symbol: "BTCUSDT"}, nil, nil)
			if err != nil {
				t.Fatalf("NewFeed: %v", err)
			}
			if got := f.streamURL(); got != tt.want {
				t.Fatalf("streamURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

// A server that drops every connection right after the upgrade forces the
// feed through repeated reconnect cycles; the goroutine count must settle
// back instead of growing by one stranded watcher per cycle.
func TestFeedReconnectDoesNotLeakWatchers(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	feed, err := NewFeed(FeedConfig{
		Endpoint:    "ws://" + strings.TrimPrefix(srv.URL, "http://"),
		Symbol:      "BTCUSDT",
		ReadTimeout: time.Second,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewFeed: %v", err)
	}
	feed.minBackoff = time.Millisecond

	connects := make(chan struct{}, 16)
	feed.OnReconnect(func() { connects <- struct{}{} })

	before := runtime.NumGoroutine()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = feed.Run(ctx)
		close(stopped)
	}()

	for i := 0; i < 4; i++ {
		select {
		case <-connects:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for connect %d", i+1)
		}
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop after cancel")
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before+2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := runtime.NumGoroutine(); got > before+2 {
		t.Fatalf("goroutines grew from %d to %d across reconnects", before, got)
	}
}

func TestParseTradeMessage(t *testing.T) {
	raw := []byte(`{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"80123.45","q":"0.01","T":1700000000123}}`)
	pt, err := ParseTradeMessage(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pt.Price != 80123.45 {
		t.Fatalf("price = %v, want 80123.45", pt.Price)
	}
	if !pt.Ts.Equal(time.UnixMilli(1700000000123)) {
		t.Fatalf("unexpected timestamp %v", pt.Ts)
	}
}

func TestParseTradeMessageRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{`},
		{"bad price", `{"stream":"s","data":{"p":"abc","T":1}}`},
		{"zero price", `{"stream":"s","data":{"p":"0","T":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTradeMessage([]byte(tt.raw)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
