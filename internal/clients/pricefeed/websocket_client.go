// Package pricefeed maintains a live BTC/USD price over a WebSocket feed.
// The latest tick is cached in memory; the scheduler persists it as the
// daily benchmark close.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	writeWait   = 10 * time.Second
	dialTimeout = 30 * time.Second

	baseReconnectDelay   = 5 * time.Second
	maxReconnectDelay    = 5 * time.Minute
	maxReconnectAttempts = 10

	// Ticks older than this are not trusted as a current price
	tickStaleThreshold = 5 * time.Minute

	productID = "BTC-USD"
)

// Tick is the most recent observed BTC price.
type Tick struct {
	PriceUSD   float64
	ObservedAt time.Time
}

// Client handles the real-time BTC price subscription.
type Client struct {
	// Connection
	url        string
	conn       *websocket.Conn
	connCtx    context.Context
	cancelFunc context.CancelFunc
	mu         sync.RWMutex

	log zerolog.Logger

	// State
	connected    bool
	reconnecting bool
	stopChan     chan struct{}
	stopped      bool

	// Last tick cache (thread-safe)
	tick   Tick
	tickMu sync.RWMutex
}

// New creates a new BTC price feed client.
func New(url string, log zerolog.Logger) *Client {
	return &Client{
		url:      url,
		log:      log.With().Str("component", "btc_price_feed").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start establishes the WebSocket connection and starts the read loop.
// A failed initial dial is not fatal; the reconnect loop keeps retrying.
func (c *Client) Start() error {
	c.log.Info().Str("url", c.url).Msg("Starting BTC price feed")

	if err := c.Connect(); err != nil {
		c.log.Warn().Err(err).Msg("Initial price feed connection failed, will retry in background")
		go c.reconnectLoop()
		return err
	}

	c.mu.RLock()
	ctx := c.connCtx
	c.mu.RUnlock()
	go c.readMessages(ctx)

	return nil
}

// Stop gracefully shuts down the connection.
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	c.log.Info().Msg("Stopping BTC price feed")
	close(c.stopChan)

	return c.Disconnect()
}

// Connect dials the feed and subscribes to the BTC ticker channel.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial price feed: %w", err)
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	c.conn = conn
	c.connCtx = connCtx
	c.cancelFunc = connCancel
	c.connected = true

	if err := c.subscribe(connCtx); err != nil {
		connCancel()
		conn.Close(websocket.StatusNormalClosure, "subscribe failed")
		c.conn = nil
		c.connCtx = nil
		c.cancelFunc = nil
		c.connected = false
		return fmt.Errorf("failed to subscribe to ticker: %w", err)
	}

	c.log.Info().Msg("Connected to BTC price feed")
	return nil
}

// Disconnect closes the WebSocket connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	// Cancel the connection context to unblock any pending reads
	if c.cancelFunc != nil {
		c.cancelFunc()
		c.cancelFunc = nil
	}

	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	c.connCtx = nil
	c.connected = false

	if err != nil {
		return fmt.Errorf("error closing price feed connection: %w", err)
	}
	return nil
}

type subscribeMessage struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

type tickerMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Time      string `json:"time"`
}

func (c *Client) subscribe(ctx context.Context) error {
	msg := subscribeMessage{
		Type:       "subscribe",
		ProductIDs: []string{productID},
		Channels:   []string{"ticker"},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send subscription message: %w", err)
	}

	return nil
}

// readMessages continuously reads ticker messages until the connection drops.
func (c *Client) readMessages(ctx context.Context) {
	defer func() {
		c.mu.RLock()
		stopped := c.stopped
		c.mu.RUnlock()
		if !stopped {
			go c.reconnectLoop()
		}
	}()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			c.log.Warn().Msg("Connection is nil, stopping read loop")
			return
		}

		msgType, message, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				c.log.Info().Int("status", int(closeStatus)).Msg("Price feed closed normally")
			} else if ctx.Err() != nil {
				c.log.Debug().Msg("Read cancelled by context")
			} else {
				c.log.Error().Err(err).Msg("Unexpected price feed read error")
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		if err := c.handleMessage(message); err != nil {
			c.log.Error().Err(err).Msg("Failed to handle price feed message")
			// Keep reading despite parse errors
		}
	}
}

func (c *Client) handleMessage(message []byte) error {
	var msg tickerMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("failed to parse feed message: %w", err)
	}

	if msg.Type != "ticker" || msg.ProductID != productID {
		return nil
	}

	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil {
		return fmt.Errorf("failed to parse price %q: %w", msg.Price, err)
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("rejected implausible price %v", price)
	}

	observedAt := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, msg.Time); err == nil {
		observedAt = t.UTC()
	}

	c.tickMu.Lock()
	c.tick = Tick{PriceUSD: price, ObservedAt: observedAt}
	c.tickMu.Unlock()

	c.log.Debug().Float64("price_usd", price).Msg("BTC tick")
	return nil
}

// reconnectLoop handles automatic reconnection with exponential backoff.
func (c *Client) reconnectLoop() {
	c.mu.Lock()
	if c.reconnecting || c.stopped {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	attempt := 0
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.mu.RLock()
		stopped := c.stopped
		c.mu.RUnlock()
		if stopped {
			return
		}

		attempt++
		delay := calculateBackoff(attempt)

		if attempt <= maxReconnectAttempts {
			c.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("Reconnecting to price feed")
		} else {
			c.log.Warn().Int("attempt", attempt).Dur("delay", delay).Msg("Reconnection attempt (exceeded max attempts, will keep retrying)")
		}

		select {
		case <-time.After(delay):
		case <-c.stopChan:
			return
		}

		if err := c.Connect(); err != nil {
			c.log.Error().Err(err).Int("attempt", attempt).Msg("Reconnection failed")
			continue
		}

		c.mu.RLock()
		ctx := c.connCtx
		c.mu.RUnlock()
		go c.readMessages(ctx)
		return
	}
}

// calculateBackoff computes exponential backoff capped at maxReconnectDelay.
func calculateBackoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}
	return time.Duration(delay)
}

// LastTick returns the most recent tick. ok is false when no tick has been
// received yet or the last one is stale.
func (c *Client) LastTick() (Tick, bool) {
	c.tickMu.RLock()
	defer c.tickMu.RUnlock()

	if c.tick.ObservedAt.IsZero() {
		return Tick{}, false
	}
	if time.Since(c.tick.ObservedAt) > tickStaleThreshold {
		return c.tick, false
	}
	return c.tick, true
}

// IsConnected returns current connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
