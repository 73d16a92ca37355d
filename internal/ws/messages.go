package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playmatatu/billiards/internal/navigation"
	"github.com/playmatatu/billiards/internal/placement"
	"github.com/playmatatu/billiards/internal/scene"
)

// Inbound message types.
const (
	MsgPick     = "pick"
	MsgGetState = "get_state"
	MsgRestart  = "restart"
)

// Outbound message types.
const (
	MsgSceneState     = "scene_state"
	MsgSteering       = "steering"
	MsgPropDestroyed  = "prop_destroyed"
	MsgCarSteered     = "car_steered"
	MsgSceneRestarted = "scene_restarted"
	MsgError          = "error"
)

// WSMessage is the envelope for every inbound message.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PickData is the payload of a pick message. Kind defaults to a pick.
type PickData struct {
	Kind     navigation.EventKind `json:"kind"`
	Point    *navigation.Point3D  `json:"point"`
	EntityID string               `json:"entity_id"`
}

func (d PickData) event() navigation.PickEvent {
	kind := d.Kind
	if kind == "" {
		kind = navigation.EventPick
	}
	return navigation.PickEvent{Kind: kind, Point: d.Point, EntityID: d.EntityID}
}

var errEmptyType = errors.New("message type required")

func decodeMessage(raw []byte) (WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return msg, errEmptyType
	}
	return msg, nil
}

func decodePick(data json.RawMessage) (PickData, error) {
	var d PickData
	if len(data) == 0 {
		return d, errors.New("pick data required")
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("invalid pick data: %w", err)
	}
	return d, nil
}

// decodeSettings reads restart settings; missing data means defaults.
func decodeSettings(data json.RawMessage, maxItems int) (placement.GameSettings, error) {
	settings := placement.DefaultSettings(maxItems)
	if len(data) == 0 || string(data) == "null" {
		return settings, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

func stateMessage(snap scene.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"type":  MsgSceneState,
		"state": snap,
	}
}

func eventMessage(ev scene.Event) map[string]interface{} {
	return map[string]interface{}{
		"type":  string(ev.Type),
		"event": ev,
	}
}

func steeringMessage(target navigation.Point3D, st navigation.Steering) map[string]interface{} {
	return map[string]interface{}{
		"type":     MsgSteering,
		"target":   target,
		"steering": st,
	}
}

func restartedMessage(s *scene.Scene) map[string]interface{} {
	return map[string]interface{}{
		"type":      MsgSceneRestarted,
		"scene_id":  s.ID,
		"placement": s.Placement,
		"state":     s.Snapshot(),
	}
}

func errorMessage(message string) map[string]interface{} {
	return map[string]interface{}{
		"type":    MsgError,
		"message": message,
	}
}
