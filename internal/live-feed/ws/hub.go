package ws

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks WebSocket connections and their per-bet subscriptions.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// betId -> set of connections
	subs map[string]map[*websocket.Conn]struct{}
}

func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

// HandleWS runs one connection's lifetime: clients subscribe/unsubscribe to
// bet ids and get every lifecycle event of those bets pushed as it happens.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.BetID]; !ok {
				h.subs[msg.BetID] = make(map[*websocket.Conn]struct{})
			}
			h.subs[msg.BetID][conn] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.BetID]; ok {
				delete(m, conn)
				if len(m) == 0 {
					delete(h.subs, msg.BetID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	// drop the connection from every subscription on disconnect
	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// Broadcast pushes a raw lifecycle payload to every subscriber of betID.
func (h *Hub) Broadcast(betID string, payload []byte) {
	h.mu.RLock()
	conns := h.subs[betID]
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	for c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, payload)
	}
}

func formatBetID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
