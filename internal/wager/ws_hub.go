package wager

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ringside/wager-engine/internal/metrics"
)

// WSMessage is a JSON event sent to WebSocket clients as pool state
// changes: wagers accepted, pools closed, pools settled.
type WSMessage struct {
	Type           string `json:"type"`
	PoolID         string `json:"pool_id"`
	OutcomeID      string `json:"outcome_id,omitempty"`
	Amount         int64  `json:"amount,omitempty"`
	Odds           string `json:"odds,omitempty"`
	Status         string `json:"status,omitempty"`
	WinningOutcome string `json:"winning_outcome,omitempty"`
	HouseTake      int64  `json:"house_take,omitempty"`
}

// wsClient is one connected subscriber. A non-empty poolID narrows the
// feed to a single pool; empty subscribes to everything.
type wsClient struct {
	conn   *websocket.Conn
	poolID string
}

type wsEvent struct {
	poolID string
	data   []byte
}

// WSHub fans pool events out to subscribed WebSocket clients.
type WSHub struct {
	clients    map[*wsClient]bool
	events     chan wsEvent
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*wsClient]bool),
		events:     make(chan wsEvent, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *WSHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			metrics.WebSocketClients.Inc()
			slog.Info("ws client connected", "pool_filter", c.poolID, "total", len(h.clients))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.conn.Close()
				metrics.WebSocketClients.Dec()
			}
			h.mu.Unlock()

		case ev := <-h.events:
			// Write lock: dead clients are removed inline.
			h.mu.Lock()
			for c := range h.clients {
				if c.poolID != "" && c.poolID != ev.poolID {
					continue
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, ev.data); err != nil {
					c.conn.Close()
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every client subscribed to its pool.
// Never blocks the wager path: the event is dropped if the buffer is full.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.events <- wsEvent{poolID: msg.PoolID, data: data}:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
// An optional ?pool=<id> query narrows the event feed to one pool.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	c := &wsClient{conn: conn, poolID: r.URL.Query().Get("pool")}
	h.register <- c

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- c }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker to keep connection alive through proxies.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[c]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()
}
