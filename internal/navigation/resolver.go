package navigation

import "math"

// EventKind identifies the pointer event reported by the renderer.
type EventKind string

const (
	EventPointerDown EventKind = "pointer_down"
	EventPointerUp   EventKind = "pointer_up"
	EventPointerMove EventKind = "pointer_move"
	EventPick        EventKind = "pointer_pick" // completed click on a surface
)

// DefaultGameAreaSize is the half-width of the square in which click targets are accepted.
const DefaultGameAreaSize = 50.0

// PickEvent is a pointer event with its pick result. Point is nil when the
// pointer did not hit any surface.
type PickEvent struct {
	Kind     EventKind `json:"kind"`
	Point    *Point3D  `json:"point,omitempty"`
	EntityID string    `json:"entity_id"`
}

// Steering is the command that drives the controlled body toward a target.
type Steering struct {
	Velocity Point3D `json:"velocity"`
	Heading  float64 `json:"heading"` // radians about the vertical axis
}

// Body is the controlled rigid body a steering command is applied to.
type Body interface {
	Position() Point3D
	SetLinearVelocity(v Point3D)
	SetRotation(r Point3D)
}

// GameArea is an axis-aligned square centered at the origin.
type GameArea struct {
	HalfSize float64
}

func NewGameArea(halfSize float64) GameArea {
	if halfSize <= 0 {
		halfSize = DefaultGameAreaSize
	}
	return GameArea{HalfSize: halfSize}
}

// Contains reports whether p lies strictly inside the area on the x/z plane.
func (a GameArea) Contains(p Point3D) bool {
	return math.Abs(p.X) < a.HalfSize && math.Abs(p.Z) < a.HalfSize
}

// Resolve computes the velocity and heading that move a body at position
// toward target. Velocity is not normalized: speed grows with distance.
func Resolve(position, target Point3D) Steering {
	velocity := target.Minus(position)
	heading := -math.Atan2(position.Z-target.Z, position.X-target.X)
	return Steering{Velocity: velocity, Heading: heading}
}

// Accept returns the picked point when the event is a completed pick on the
// navigable ground inside the game area.
func Accept(event PickEvent, groundID string, area GameArea) (Point3D, bool) {
	if event.Kind != EventPick || event.Point == nil {
		return Point3D{}, false
	}
	if !area.Contains(*event.Point) {
		return Point3D{}, false
	}
	if groundID == "" || event.EntityID != groundID {
		return Point3D{}, false
	}
	return *event.Point, true
}

// HandlePick gates the event and, when accepted, steers body toward the
// picked point. Rejected events leave body untouched.
func HandlePick(event PickEvent, groundID string, body Body, area GameArea) (Steering, bool) {
	if body == nil {
		return Steering{}, false
	}
	target, ok := Accept(event, groundID, area)
	if !ok {
		return Steering{}, false
	}

	steering := Resolve(body.Position(), target)
	body.SetLinearVelocity(steering.Velocity)
	body.SetRotation(Point3D{Y: steering.Heading})
	return steering, true
}
