package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PointHandler receives each parsed price point from the feed.
type PointHandler func(PricePoint)

// FeedConfig configures the trade stream connection.
type FeedConfig struct {
	Endpoint    string // e.g. wss://stream.binance.com:9443
	Symbol      string // e.g. BTCUSDT
	ReadTimeout time.Duration
}

// Feed subscribes to a Binance-style combined trade stream and delivers
// normalized price points. Reconnects with backoff until the context ends.
type Feed struct {
	cfg        FeedConfig
	dialer     *websocket.Dialer
	log        *zap.Logger
	onPoint    PointHandler
	onConnect  func()
	minBackoff time.Duration
}

// NewFeed creates a feed for one symbol. handler is invoked on the feed's
// read goroutine; it must not block.
func NewFeed(cfg FeedConfig, handler PointHandler, log *zap.Logger) (*Feed, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("feed endpoint required")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("feed symbol required")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{
		cfg:        cfg,
		dialer:     websocket.DefaultDialer,
		log:        log,
		onPoint:    handler,
		minBackoff: time.Second,
	}, nil
}

// OnReconnect registers a callback fired after each successful dial.
func (f *Feed) OnReconnect(fn func()) { f.onConnect = fn }

// Run dials and reads until ctx is done, reconnecting on errors.
func (f *Feed) Run(ctx context.Context) error {
	backoff := f.minBackoff
	for {
		if err := f.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn("feed disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// streamURL builds the combined-stream URL for the configured symbol. A
// schemeless endpoint defaults to wss; ws:// is kept as-is for local setups.
func (f *Feed) streamURL() string {
	scheme, host, ok := strings.Cut(f.cfg.Endpoint, "://")
	if !ok {
		scheme, host = "wss", f.cfg.Endpoint
	}
	u := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   "/stream",
	}
	q := u.Query()
	q.Set("streams", strings.ToLower(f.cfg.Symbol)+"@trade")
	u.RawQuery = q.Encode()
	return u.String()
}

func (f *Feed) runOnce(ctx context.Context) error {
	stream := strings.ToLower(f.cfg.Symbol) + "@trade"
	conn, _, err := f.dialer.DialContext(ctx, f.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.cfg.Endpoint, err)
	}
	defer conn.Close()
	if f.onConnect != nil {
		f.onConnect()
	}
	f.log.Info("feed connected", zap.String("stream", stream))

	// The watcher must not outlive this connection attempt, or each
	// reconnect cycle would strand one goroutine until shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		pt, err := ParseTradeMessage(raw)
		if err != nil {
			f.log.Debug("skipping unparseable message", zap.Error(err))
			continue
		}
		if f.onPoint != nil {
			f.onPoint(pt)
		}
	}
}

// combinedMessage wraps a Binance combined stream payload.
type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// tradeEvent carries the fields of an @trade message we use.
type tradeEvent struct {
	Symbol    string      `json:"s"`
	Price     json.Number `json:"p"`
	TradeTime int64       `json:"T"` // milliseconds
}

// ParseTradeMessage extracts a price point from a combined-stream trade message.
func ParseTradeMessage(raw []byte) (PricePoint, error) {
	var msg combinedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return PricePoint{}, fmt.Errorf("parse stream envelope: %w", err)
	}
	var ev tradeEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return PricePoint{}, fmt.Errorf("parse trade event: %w", err)
	}
	price, err := ev.Price.Float64()
	if err != nil {
		return PricePoint{}, fmt.Errorf("parse trade price: %w", err)
	}
	if price <= 0 {
		return PricePoint{}, fmt.Errorf("non-positive trade price %v", price)
	}
	return PricePoint{
		Ts:    time.UnixMilli(ev.TradeTime),
		Price: price,
	}, nil
}
