package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSTickerConfig configures WebSocket ticker behavior.
type WSTickerConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// StaleAfter is how old a cached price may be before Price reports a gap.
	StaleAfter time.Duration
}

// DefaultWSTickerConfig returns default ticker configuration.
func DefaultWSTickerConfig() WSTickerConfig {
	return WSTickerConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		StaleAfter:        10 * time.Second,
	}
}

type tick struct {
	price float64
	at    time.Time
}

// WSTicker maintains a last-price cache per symbol from an exchange trade
// stream. The socket is kept alive with pings and reconnected with
// exponential backoff; Price never blocks on the network.
type WSTicker struct {
	endpoint string
	symbols  []string
	config   WSTickerConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	ticks   map[string]tick
	ticksMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewWSTicker connects to the endpoint and starts consuming trade messages
// for the given symbols.
func NewWSTicker(ctx context.Context, endpoint string, symbols []string, config *WSTickerConfig) (*WSTicker, error) {
	cfg := DefaultWSTickerConfig()
	if config != nil {
		cfg = *config
	}

	t := &WSTicker{
		endpoint: endpoint,
		symbols:  append([]string(nil), symbols...),
		config:   cfg,
		ticks:    make(map[string]tick),
		done:     make(chan struct{}),
	}

	if err := t.connect(ctx); err != nil {
		return nil, err
	}

	t.wg.Add(1)
	go t.readLoop()

	t.wg.Add(1)
	go t.pingLoop()

	return t, nil
}

// connect establishes the WebSocket connection and subscribes.
func (t *WSTicker) connect(ctx context.Context) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	streams := make([]string, 0, len(t.symbols))
	for _, s := range t.symbols {
		streams = append(streams, strings.ToLower(s)+"@trade")
	}
	req := wsSubscribeRequest{Method: "SUBSCRIBE", Params: streams, ID: 1}

	conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	t.conn = conn
	return nil
}

// Price returns the cached price for a symbol. Returns ErrNoPrice if no
// trade has arrived yet or the cache is stale.
func (t *WSTicker) Price(_ context.Context, symbol string) (float64, error) {
	t.ticksMu.RLock()
	tk, ok := t.ticks[symbol]
	t.ticksMu.RUnlock()

	if !ok {
		return 0, ErrNoPrice
	}
	if t.config.StaleAfter > 0 && time.Since(tk.at) > t.config.StaleAfter {
		return 0, ErrNoPrice
	}
	return tk.price, nil
}

// Close closes the WebSocket connection.
func (t *WSTicker) Close() error {
	if t.closed.Swap(true) {
		return nil // Already closed
	}

	close(t.done)

	t.connMu.Lock()
	if t.conn != nil {
		t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.conn.Close()
	}
	t.connMu.Unlock()

	t.wg.Wait()
	return nil
}

// readLoop reads trade messages and updates the price cache.
func (t *WSTicker) readLoop() {
	defer t.wg.Done()

	reconnectDelay := t.config.ReconnectDelay

	for !t.closed.Load() {
		t.connMu.Lock()
		conn := t.conn
		t.connMu.Unlock()

		if conn == nil {
			select {
			case <-t.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if t.closed.Load() {
				return
			}

			// Connection error - attempt reconnect with exponential backoff
			if !t.reconnecting.Swap(true) {
				go t.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > t.config.MaxReconnectDelay {
				reconnectDelay = t.config.MaxReconnectDelay
			}

			select {
			case <-t.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = t.config.ReconnectDelay

		t.handleMessage(message)
	}
}

// reconnect retries with exponential backoff until a connection is
// established or the ticker closes. It must not give up after a failed
// attempt: with conn nil the read loop can never surface another error to
// trigger a retry, so a one-shot reconnect would silence the feed for good.
func (t *WSTicker) reconnect(delay time.Duration) {
	defer t.reconnecting.Store(false)

	t.connMu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.connMu.Unlock()

	for !t.closed.Load() {
		select {
		case <-t.done:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := t.connect(ctx)
		cancel()
		if err == nil {
			return
		}

		delay *= 2
		if delay > t.config.MaxReconnectDelay {
			delay = t.config.MaxReconnectDelay
		}
	}
}

// handleMessage processes one incoming trade message.
func (t *WSTicker) handleMessage(message []byte) {
	var msg wsTradeMessage
	if err := json.Unmarshal(message, &msg); err != nil || msg.Symbol == "" {
		return
	}

	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil || price <= 0 {
		return
	}

	t.ticksMu.Lock()
	t.ticks[msg.Symbol] = tick{price: price, at: time.Now()}
	t.ticksMu.Unlock()
}

// pingLoop sends periodic ping frames to keep connection alive.
func (t *WSTicker) pingLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.connMu.Lock()
			if t.conn != nil {
				t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
				if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			t.connMu.Unlock()
		}
	}
}

var _ Source = (*WSTicker)(nil)

// WebSocket message types

type wsSubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     uint64   `json:"id"`
}

type wsTradeMessage struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}
