package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-audio/internal/announce"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-audio/internal/monitor"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

const (
	// wsSendBufferSize is the per-client outbound queue length.
	wsSendBufferSize = 64

	defaultWSPingInterval = 30 * time.Second
	defaultWSPongTimeout  = 10 * time.Second
	defaultWSMessageSize  = 4096
)

// wsChannels lists the channels the announcer publishes on.
var wsChannels = map[string]struct{}{
	announce.ChannelDeviceEvent: {},
}

// wsClasses lists the device classes a subscription can be narrowed to.
var wsClasses = map[string]struct{}{
	monitor.ClassSink:   {},
	monitor.ClassSource: {},
}

// WSMessage is a frame exchanged with a WebSocket client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload selects channels and, optionally, the device classes
// of interest. An empty Classes list means every class.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
	Classes  []string `json:"classes,omitempty"`
}

// wsTimings holds the keepalive settings of one connection.
type wsTimings struct {
	ping     time.Duration
	pongWait time.Duration
	maxSize  int64
}

func newWSTimings(cfg config.WebSocketConfig) wsTimings {
	t := wsTimings{
		ping:     time.Duration(cfg.PingInterval) * time.Second,
		pongWait: time.Duration(cfg.PongTimeout) * time.Second,
		maxSize:  int64(cfg.MaxMessageSize),
	}
	if t.ping <= 0 {
		t.ping = defaultWSPingInterval
	}
	if t.pongWait <= 0 {
		t.pongWait = defaultWSPongTimeout
	}
	if t.maxSize <= 0 {
		t.maxSize = defaultWSMessageSize
	}
	return t
}

// readDeadline is how long a connection may stay silent, pongs included.
func (t wsTimings) readDeadline() time.Time {
	return time.Now().Add(t.ping + t.pongWait)
}

// Hub relays announced device events to WebSocket subscribers. It is the
// announcer's Broadcaster.
type Hub struct {
	timings wsTimings
	logger  *logging.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewHub creates a hub using cfg for per-connection keepalive.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		timings: newWSTimings(cfg),
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run blocks until ctx ends, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	dropped := c.close()
	h.logger.Debug("websocket client disconnected", "clients", n, "dropped", dropped)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends payload to every client subscribed to channel whose
// class filter admits the event's device. Slow clients lose the frame.
func (h *Hub) Broadcast(channel string, payload any) {
	if _, ok := wsChannels[channel]; !ok {
		h.logger.Warn("broadcast on unknown websocket channel", "channel", channel)
		return
	}

	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket event", "error", err)
		return
	}
	class := eventClass(payload)

	h.mu.Lock()
	targets := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if c.wants(channel, class) {
			c.enqueue(data)
		}
	}
}

// eventClass extracts the device class of an announced event, or "" for
// payloads that carry none.
func eventClass(payload any) string {
	switch e := payload.(type) {
	case announce.Event:
		return e.Device.Class
	case *announce.Event:
		if e != nil {
			return e.Device.Class
		}
	}
	return ""
}

// wsClient is one WebSocket connection. subs maps a channel to its class
// filter; a nil filter admits every class.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn

	mu      sync.Mutex
	send    chan []byte
	closed  bool
	dropped int
	subs    map[string]map[string]struct{}
}

func newWSClient(hub *Hub, conn *websocket.Conn, buffer int) *wsClient {
	return &wsClient{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, buffer),
		subs: make(map[string]map[string]struct{}),
	}
}

// enqueue queues data unless the client is gone or its queue is full.
func (c *wsClient) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.dropped++
		return false
	}
}

// close ends the send queue, which makes writeLoop say goodbye and close
// the connection. It returns the number of frames dropped for a full
// queue. Safe to call more than once.
func (c *wsClient) close() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return c.dropped
}

func (c *wsClient) wants(channel, class string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	filter, ok := c.subs[channel]
	if !ok {
		return false
	}
	if filter == nil || class == "" {
		return true
	}
	_, ok = filter[class]
	return ok
}

// handleWebSocket upgrades the request and serves the connection until
// either side closes it. Clients receive nothing until they subscribe.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := newWSClient(s.hub, conn, wsSendBufferSize)
	s.hub.register(c)
	defer s.hub.unregister(c)

	go c.writeLoop(s.hub.timings)
	c.readLoop(s.hub.timings)
}

// readLoop handles client frames until the connection fails. Any frame,
// not only a pong, extends the read deadline.
func (c *wsClient) readLoop(t wsTimings) {
	c.conn.SetReadLimit(t.maxSize)
	_ = c.conn.SetReadDeadline(t.readDeadline())
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(t.readDeadline())
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(t.readDeadline())

		if reply := c.handleFrame(data); reply != nil {
			c.reply(*reply)
		}
	}
}

// writeLoop drains the send queue and pings on an interval. It owns
// closing the connection, which in turn ends readLoop.
func (c *wsClient) writeLoop(t wsTimings) {
	ticker := time.NewTicker(t.ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(t.pongWait))
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame applies one client frame and returns the reply to send.
func (c *wsClient) handleFrame(data []byte) *WSMessage {
	var in struct {
		Type    string             `json:"type"`
		ID      string             `json:"id"`
		Payload WSSubscribePayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return wsError("", "invalid JSON message")
	}

	switch in.Type {
	case WSTypePing:
		return &WSMessage{Type: WSTypePong, ID: in.ID}
	case WSTypeSubscribe:
		return c.subscribe(in.ID, in.Payload)
	case WSTypeUnsubscribe:
		return c.unsubscribe(in.ID, in.Payload)
	default:
		return wsError(in.ID, "unknown message type: "+in.Type)
	}
}

// subscribe validates every channel and class before changing anything.
func (c *wsClient) subscribe(id string, p WSSubscribePayload) *WSMessage {
	if len(p.Channels) == 0 {
		return wsError(id, "subscribe needs at least one channel")
	}
	for _, ch := range p.Channels {
		if _, ok := wsChannels[ch]; !ok {
			return wsError(id, "unknown channel: "+ch)
		}
	}

	var filter map[string]struct{}
	if len(p.Classes) > 0 {
		filter = make(map[string]struct{}, len(p.Classes))
		for _, class := range p.Classes {
			if _, ok := wsClasses[class]; !ok {
				return wsError(id, "unknown device class: "+class)
			}
			filter[class] = struct{}{}
		}
	}

	c.mu.Lock()
	for _, ch := range p.Channels {
		c.subs[ch] = filter
	}
	c.mu.Unlock()

	c.hub.logger.Debug("websocket client subscribed", "channels", p.Channels, "classes", p.Classes)
	return &WSMessage{Type: WSTypeResponse, ID: id, Payload: map[string]any{
		"subscribed": p.Channels,
		"classes":    p.Classes,
	}}
}

// unsubscribe drops the named channels, or all of them when none is named.
func (c *wsClient) unsubscribe(id string, p WSSubscribePayload) *WSMessage {
	c.mu.Lock()
	if len(p.Channels) == 0 {
		p.Channels = make([]string, 0, len(c.subs))
		for ch := range c.subs {
			p.Channels = append(p.Channels, ch)
		}
		slices.Sort(p.Channels)
	}
	for _, ch := range p.Channels {
		delete(c.subs, ch)
	}
	c.mu.Unlock()

	return &WSMessage{Type: WSTypeResponse, ID: id, Payload: map[string]any{
		"unsubscribed": p.Channels,
	}}
}

func (c *wsClient) reply(msg WSMessage) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("encoding websocket reply", "error", err)
		return
	}
	c.enqueue(data)
}

func wsError(id, message string) *WSMessage {
	return &WSMessage{Type: WSTypeError, ID: id, Payload: map[string]string{"message": message}}
}
