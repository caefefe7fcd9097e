package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// State WebSocket
// ============================================================================
// Subscribers connect to /ws and receive JSON text frames shaped as
// {type, ts, data}. The first frame is "state_init"; afterwards the daemon
// pushes "value_changed" (coalesced, latest wins) and "layout_changed".
//
// Subscribers may also write events back using the IPC envelope
// ({"type":"drag","data":{...}}); they are fed into the daemon loop.
// ============================================================================

type wsStateInitData struct {
	Value        float64 `json:"value"`
	Angle        float64 `json:"angle"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Variant      string  `json:"variant"`
	Proportional bool    `json:"proportional"`
	LineWidth    float64 `json:"line_width"`
	Gap          float64 `json:"gap"`
}

type wsValueChangedData struct {
	Value float64 `json:"value"`
	Angle float64 `json:"angle"`
}

type wsLayoutChangedData struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	LineWidth float64 `json:"line_width"`
	Gap       float64 `json:"gap"`
}

type wsEnvelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

func marshalWS(typ string, at time.Time, data any) ([]byte, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return json.Marshal(wsEnvelope{Type: typ, Ts: &at, Data: data})
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	// wsValueCoalesceWindow bounds how often value_changed frames go out
	// while a drag or animation is streaming updates.
	wsValueCoalesceWindow = 50 * time.Millisecond

	wsMaxInboundBytes = 4096
)

// ============================================================================
// Hub
// ============================================================================

// Hub fans pre-serialized frames out to every connected subscriber.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size (default 32).
	SendBuf int
	// BroadcastBuf is the hub inbound queue size (default 128).
	BroadcastBuf int
}

func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	if cfg.SendBuf <= 0 {
		cfg.SendBuf = 32
	}
	if cfg.BroadcastBuf <= 0 {
		cfg.BroadcastBuf = 128
	}
	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, cfg.BroadcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    cfg.SendBuf,
	}
}

// Run processes registrations and broadcasts until ctx is canceled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping")
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.remove(c, "unregister")

		case msg := <-h.broadcast:
			for _, c := range h.fanout(msg) {
				h.remove(c, "slow_client")
			}
		}
	}
}

// fanout enqueues msg on every client and returns the ones whose queue was full.
func (h *Hub) fanout(msg []byte) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	return slow
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.close()
	h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
}

// BroadcastBytes enqueues a frame without blocking; it is dropped when the
// hub queue is full.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce  sync.Once
	remoteAddr string
	logger     *slog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 32
	if hub != nil {
		sendBuf = hub.sendBuf
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

// close shuts the connection and the send queue exactly once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		close(c.send)
	})
}

func (c *Client) logExit(pump string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		c.logger.Info("ws "+pump+" exiting (close)", "remote_addr", c.remoteAddr, "code", ce.Code, "reason", ce.Text)
		return
	}
	c.logger.Info("ws "+pump+" exiting", "remote_addr", c.remoteAddr, "error", err)
}

// writePump drains the send queue onto the socket and keeps the peer alive
// with pings. It exits when send is closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", err)
				return
			}
		}
	}
}

// readPump decodes inbound frames as events and forwards them to the daemon.
// Malformed frames are logged and skipped. On read error it unregisters.
func (c *Client) readPump(events chan<- Event) {
	c.conn.SetReadLimit(wsMaxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logExit("readPump", err)
			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}
		if events == nil {
			continue
		}

		ev, err := UnmarshalEvent(data)
		if err != nil {
			c.logger.Debug("ws inbound event rejected", "remote_addr", c.remoteAddr, "error", err)
			continue
		}
		select {
		case events <- ev:
		default:
			c.logger.Warn("ws inbound event dropped (queue full)", "remote_addr", c.remoteAddr)
		}
	}
}

// ============================================================================
// HTTP handler
// ============================================================================

type Server struct {
	logger *slog.Logger
	hub    *Hub
	events chan<- Event
}

type ServerConfig struct {
	Hub HubConfig
}

// NewServer wires a hub to the daemon's event channel. Start Hub().Run and
// RunBroadcaster separately.
func NewServer(logger *slog.Logger, events chan<- Event, cfg ServerConfig) *Server {
	return &Server{
		logger: logger,
		hub:    NewHub(logger, cfg.Hub),
		events: events,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the connection, attaches the client and starts its pumps.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := s.attach(r.Context(), conn, r.RemoteAddr)

	// Pump lifetime is owned by the hub, not the request context.
	go client.writePump()
	go client.readPump(s.events)
}

// attach queues state_init on a fresh client and only then registers it, so
// no broadcast frame can overtake state_init.
func (s *Server) attach(ctx context.Context, conn *websocket.Conn, remoteAddr string) *Client {
	client := NewClient(s.hub, conn, remoteAddr, s.logger)
	if msg, ok := s.stateInit(ctx); ok {
		client.send <- msg
	}
	s.hub.register <- client
	return client
}

// stateInit builds the state_init frame from a snapshot taken by the daemon loop.
func (s *Server) stateInit(ctx context.Context) ([]byte, bool) {
	snap, ok := s.requestSnapshot(ctx)
	if !ok {
		return nil, false
	}

	msg, err := marshalWS("state_init", snap.At, wsStateInitData{
		Value:        snap.Value,
		Angle:        snap.Angle,
		Width:        snap.Width,
		Height:       snap.Height,
		Variant:      snap.Variant,
		Proportional: snap.Proportional,
		LineWidth:    snap.LineWidth,
		Gap:          snap.Gap,
	})
	if err != nil {
		s.logger.Warn("ws state_init marshal failed", "error", err)
		return nil, false
	}
	return msg, true
}

func (s *Server) requestSnapshot(ctx context.Context) (StateSnapshot, bool) {
	if s.events == nil {
		return StateSnapshot{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	reply := make(chan StateSnapshot, 1)
	select {
	case <-ctx.Done():
		return StateSnapshot{}, false
	case s.events <- RequestStateSnapshot{Reply: reply}:
	}

	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "error", ctx.Err())
		}
		return StateSnapshot{}, false
	case snap := <-reply:
		return snap, true
	}
}

// ============================================================================
// Broadcaster
// ============================================================================

// RunBroadcaster serializes daemon broadcasts and hands them to the hub.
// value_changed is rate limited: the latest pending value goes out at most
// once per wsValueCoalesceWindow. Any other frame flushes the pending value
// first so ordering is preserved.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan StateBroadcast, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	var (
		pending *BroadcastValueChanged
		ticker  *time.Ticker
		tick    <-chan time.Time
	)

	send := func(typ string, at time.Time, data any) {
		msg, err := marshalWS(typ, at, data)
		if err != nil {
			logger.Warn("ws broadcaster marshal failed", "error", err, "type", typ)
			return
		}
		hub.BroadcastBytes(msg)
	}

	flush := func() {
		if pending == nil {
			return
		}
		send("value_changed", pending.At, wsValueChangedData{Value: pending.Value, Angle: pending.Angle})
		pending = nil
	}

	stop := func() {
		if ticker != nil {
			ticker.Stop()
		}
		ticker, tick = nil, nil
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case <-tick:
			if pending == nil {
				stop()
				continue
			}
			flush()

		case b, ok := <-src:
			if !ok {
				flush()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}

			switch ev := b.(type) {
			case BroadcastValueChanged:
				pending = &ev
				if ticker == nil {
					ticker = time.NewTicker(wsValueCoalesceWindow)
					tick = ticker.C
				}

			case BroadcastLayoutChanged:
				flush()
				send("layout_changed", ev.At, wsLayoutChangedData{
					Width:     ev.Width,
					Height:    ev.Height,
					LineWidth: ev.LineWidth,
					Gap:       ev.Gap,
				})

			default:
				logger.Debug("ws broadcaster dropping unknown broadcast")
			}
		}
	}
}
