package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/billiards/internal/scene"
	"github.com/redis/go-redis/v9"
)

// relay forwards an event published by another instance to the local room.
// It reports whether the payload was delivered.
func (h *Hub) relay(payload []byte) bool {
	var ev scene.PublishedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return false
	}
	if ev.Origin == h.manager.InstanceID() {
		// Already broadcast by OnTick.
		return false
	}
	if ev.Token == "" || h.RoomSize(ev.Token) == 0 {
		return false
	}

	switch ev.Type {
	case scene.EventPropDestroyed, scene.EventCarSteered:
		h.Broadcast(ev.Token, eventMessage(ev.Event))
		return true
	default:
		log.Printf("[WS] unknown event type: %s", ev.Type)
		return false
	}
}

// StartEventSubscriber relays scene events from other server instances
// until ctx is done.
func (h *Hub) StartEventSubscriber(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return nil
	}

	pubsub := rdb.Subscribe(ctx, scene.EventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Printf("[WS] %s subscriber started", scene.EventsChannel)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.relay([]byte(msg.Payload))
		}
	}
}
