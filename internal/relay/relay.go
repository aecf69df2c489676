// Package relay streams the step log to websocket spectators while a
// game runs. Delivery is best-effort: a slow or broken client is
// dropped, never the game.
package relay

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lachiemurray/PhotonAi/internal/world"
)

type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	subs     map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subs: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("relay: upgrade: %v", err)
		return
	}
	h.mu.Lock()
	h.subs[conn] = struct{}{}
	h.mu.Unlock()
	go h.readPump(conn)
}

// readPump drains and discards everything the client sends. Spectators
// have nothing to say, but the read loop is what notices close frames
// and dead peers, so a departed client is dropped without waiting for a
// broadcast write to fail.
func (h *Hub) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.subs, conn)
}

// OnStep implements metrics.Observer; each applied step is fanned out
// to every subscriber as one JSON text message.
func (h *Hub) OnStep(step *world.Step, _ *world.World) {
	data, err := json.Marshal(step)
	if err != nil {
		log.Printf("relay: marshal step %d: %v", step.Clock, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.subs, conn)
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs {
		conn.Close()
		delete(h.subs, conn)
	}
}
