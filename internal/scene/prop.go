package scene

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/playmatatu/billiards/internal/navigation"
)

// PropKind distinguishes the two kinds of destructible props.
type PropKind string

const (
	KindBox    PropKind = "box"
	KindSphere PropKind = "sphere"
)

// Prop is a box or sphere resting on the ground until knocked off.
type Prop struct {
	ID          string
	Kind        PropKind
	Size        float64 // edge length for boxes, diameter for spheres
	Mass        float64
	Restitution float64

	body     *cp.Body
	shape    *cp.Shape
	height   float64 // y of the center
	vy       float64
	falling  bool
	disposed bool
}

// PropState is the serialized view of a prop.
type PropState struct {
	ID       string             `json:"id"`
	Kind     PropKind           `json:"kind"`
	Size     float64            `json:"size"`
	Position navigation.Point3D `json:"position"`
	Velocity navigation.Point3D `json:"velocity"`
	Rotation float64            `json:"rotation"`
	Falling  bool               `json:"falling"`
}

func newBoxProp(id string, x, z float64, size int) *Prop {
	s := float64(size)
	p := &Prop{
		ID:          id,
		Kind:        KindBox,
		Size:        s,
		Mass:        s * 2,
		Restitution: s / 10,
		height:      s / 2,
	}
	p.body = cp.NewBody(p.Mass, cp.MomentForBox(p.Mass, s, s))
	p.body.SetPosition(cp.Vector{X: x, Y: z})
	p.shape = cp.NewBox(p.body, s, s, 0)
	p.shape.SetElasticity(p.Restitution)
	p.shape.SetFriction(GroundFriction)
	p.body.SetVelocityUpdateFunc(p.updateVelocity)
	return p
}

func newSphereProp(id string, x, z float64, diameter int) *Prop {
	d := float64(diameter)
	p := &Prop{
		ID:          id,
		Kind:        KindSphere,
		Size:        d,
		Mass:        d * 5,
		Restitution: 0,
		height:      d / 2,
	}
	p.body = cp.NewBody(p.Mass, cp.MomentForCircle(p.Mass, 0, d/2, cp.Vector{}))
	p.body.SetPosition(cp.Vector{X: x, Y: z})
	p.shape = cp.NewCircle(p.body, d/2, cp.Vector{})
	p.shape.SetElasticity(p.Restitution)
	p.shape.SetFriction(GroundFriction)
	p.body.SetVelocityUpdateFunc(p.updateVelocity)
	return p
}

// updateVelocity integrates the body and applies sliding friction against
// the ground while the prop is supported.
func (p *Prop) updateVelocity(body *cp.Body, gravity cp.Vector, damping, dt float64) {
	cp.BodyUpdateVelocity(body, gravity, damping, dt)

	v := body.Velocity()
	v = v.Mult(math.Pow(1-DefaultPropDamping, dt))
	if !p.falling {
		speed := v.Length()
		speed -= GroundFriction * -Gravity * dt
		if speed <= 0 {
			v = cp.Vector{}
			body.SetAngularVelocity(0)
		} else {
			v = v.Normalize().Mult(speed)
		}
	}
	body.SetVelocityVector(v)
}

// onGround reports whether the prop's center is above the visible ground.
func (p *Prop) onGround() bool {
	pos := p.body.Position()
	half := GroundSize / 2
	return math.Abs(pos.X) <= half && math.Abs(pos.Y) <= half
}

// bottom is the y of the lowest point of the prop.
func (p *Prop) bottom() float64 {
	return p.height - p.Size/2
}

func (p *Prop) position() navigation.Point3D {
	pos := p.body.Position()
	return navigation.NewPoint3D(pos.X, p.height, pos.Y)
}

func (p *Prop) state() PropState {
	v := p.body.Velocity()
	return PropState{
		ID:       p.ID,
		Kind:     p.Kind,
		Size:     p.Size,
		Position: p.position(),
		Velocity: navigation.NewPoint3D(v.X, p.vy, v.Y),
		Rotation: p.body.Angle(),
		Falling:  p.falling,
	}
}
