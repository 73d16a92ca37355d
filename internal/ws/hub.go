package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/scene"
)

// Hub tracks WebSocket clients grouped into rooms by scene token.
type Hub struct {
	manager    *scene.Manager
	cfg        *config.Config
	rooms      map[string]map[*Client]struct{} // token -> clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub serving scenes from manager.
func NewHub(manager *scene.Manager, cfg *config.Config) *Hub {
	if cfg == nil {
		cfg = manager.GetConfig()
	}
	return &Hub{
		manager:    manager,
		cfg:        cfg,
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	log.Println("[WS] Hub started")

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for token, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
				delete(h.rooms, token)
			}
			h.mu.Unlock()
			log.Println("[WS] Hub stopped")
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[c.token]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.token] = room
			}
			room[c] = struct{}{}
			size := len(room)
			h.mu.Unlock()

			log.Printf("[WS] Client %s joined scene %s (room_size=%d follower=%v)", c.id, shortToken(c.token), size, c.follower)
			if snap, err := h.currentState(ctx, c.token); err == nil {
				c.sendJSON(stateMessage(*snap))
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[c.token]; ok {
				if _, ok := room[c]; ok {
					delete(room, c)
					close(c.send)
					if len(room) == 0 {
						delete(h.rooms, c.token)
					}
					log.Printf("[WS] Client %s left scene %s", c.id, shortToken(c.token))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends message to every client watching token.
func (h *Hub) Broadcast(token string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[token] {
		select {
		case c.send <- data:
		default:
			log.Printf("[WS] Send buffer full for client %s in scene %s, dropping message", c.id, shortToken(token))
		}
	}
}

// RoomSize returns how many clients watch token.
func (h *Hub) RoomSize(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[token])
}

// Watched reports whether any client on this instance watches token.
func (h *Hub) Watched(token string) bool {
	return h.RoomSize(token) > 0
}

// currentState returns the live snapshot, or the shared one when another
// instance owns the scene.
func (h *Hub) currentState(ctx context.Context, token string) (*scene.Snapshot, error) {
	if s, err := h.manager.Get(token); err == nil {
		snap := s.Snapshot()
		return &snap, nil
	}
	return h.manager.LoadSnapshot(ctx, token)
}

// OnTick is a scene.TickListener that streams state and destruction events
// to the scene's room.
func (h *Hub) OnTick(token string, snap scene.Snapshot, events []scene.Event) {
	if h.RoomSize(token) == 0 {
		return
	}
	for _, ev := range events {
		h.Broadcast(token, eventMessage(ev))
	}
	h.Broadcast(token, stateMessage(snap))
}

func shortToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
