package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/billiards/internal/middleware"
	"github.com/playmatatu/billiards/internal/scene"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 4096
)

// Client is one WebSocket connection watching a scene. A follower watches a
// scene simulated by another instance and only receives relayed events.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	id       string
	token    string
	follower bool
	send     chan []byte
}

func newClient(h *Hub, conn *websocket.Conn, token string, follower bool) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		id:       uuid.NewString()[:8],
		token:    token,
		follower: follower,
		send:     make(chan []byte, 256),
	}
}

// HandleWebSocket upgrades a request for /scenes/:token/ws. It expects
// middleware.SceneAuth to have run. Scenes owned by another instance are
// joined as a follower when a shared snapshot exists.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	token := c.GetString(middleware.SceneTokenKey)
	if token == "" {
		token = c.Param("token")
	}
	follower := false
	if _, err := h.manager.Get(token); err != nil {
		if _, err := h.manager.LoadSnapshot(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "scene not found"})
			return
		}
		follower = true
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || middleware.OriginAllowed(h.cfg, origin)
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := newClient(h, conn, token, follower)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for client %s: %v", c.id, err)
			}
			return
		}
		c.handleMessage(context.Background(), raw)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches one inbound message.
func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	msg, err := decodeMessage(raw)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	if !c.follower {
		c.hub.manager.Touch(c.token)
	}

	switch msg.Type {
	case MsgPick:
		if c.follower {
			c.sendError(errFollower)
			return
		}
		data, err := decodePick(msg.Data)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		steering, ok, err := c.hub.manager.Pick(ctx, c.token, data.event())
		if err != nil {
			c.sendSceneError(err)
			return
		}
		if !ok {
			// Rejected picks are silent no-ops.
			return
		}
		// The room hears about it as car_steered on the next tick.
		c.sendJSON(steeringMessage(*data.Point, steering))

	case MsgGetState:
		snap, err := c.hub.currentState(ctx, c.token)
		if err != nil {
			c.sendSceneError(err)
			return
		}
		c.sendJSON(stateMessage(*snap))

	case MsgRestart:
		if c.follower {
			c.sendError(errFollower)
			return
		}
		settings, err := decodeSettings(msg.Data, c.hub.cfg.MaxItemsCount)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		s, err := c.hub.manager.Restart(ctx, c.token, settings)
		if err != nil {
			c.sendSceneError(err)
			return
		}
		c.hub.Broadcast(c.token, restartedMessage(s))

	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

const errFollower = "scene is simulated by another server; this connection is read-only"

func (c *Client) sendSceneError(err error) {
	switch {
	case errors.Is(err, scene.ErrSceneNotFound):
		c.sendError("scene not found")
	case errors.Is(err, scene.ErrSceneEnded):
		c.sendError("scene has ended")
	default:
		log.Printf("[WS] Scene error for client %s: %v", c.id, err)
		c.sendError("internal error")
	}
}

// sendJSON queues a message without blocking the caller. Clients that have
// left their room are skipped since their send channel is closed.
func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.rooms[c.token][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Send buffer full for client %s, dropping message", c.id)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(errorMessage(message))
}
