package scene

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/playmatatu/billiards/internal/navigation"
)

// Car is the controlled body. It rides on the navigable plane, so only its
// horizontal motion is simulated.
type Car struct {
	body     *cp.Body
	shape    *cp.Shape
	rotation navigation.Point3D
}

// CarState is the serialized view of the car.
type CarState struct {
	Position navigation.Point3D `json:"position"`
	Velocity navigation.Point3D `json:"velocity"`
	Rotation navigation.Point3D `json:"rotation"`
}

func newCar() *Car {
	c := &Car{rotation: navigation.Point3D{Y: CarInitialHeading}}
	// Infinite moment: the heading only changes through SetRotation.
	c.body = cp.NewBody(CarMass, math.Inf(1))
	c.body.SetPosition(cp.Vector{})
	c.body.SetAngle(CarInitialHeading)
	c.shape = cp.NewBox(c.body, CarWidth, CarDepth, 0)
	c.shape.SetElasticity(0)
	c.shape.SetFriction(0)
	c.body.SetVelocityUpdateFunc(func(body *cp.Body, gravity cp.Vector, damping, dt float64) {
		cp.BodyUpdateVelocity(body, gravity, damping, dt)
		body.SetVelocityVector(body.Velocity().Mult(math.Pow(1-CarLinearDamping, dt)))
	})
	return c
}

func (c *Car) Position() navigation.Point3D {
	pos := c.body.Position()
	return navigation.NewPoint3D(pos.X, CarY, pos.Y)
}

// SetLinearVelocity drops the vertical component; the car never leaves the plane.
func (c *Car) SetLinearVelocity(v navigation.Point3D) {
	c.body.SetVelocityVector(cp.Vector{X: v.X, Y: v.Z})
}

func (c *Car) SetRotation(r navigation.Point3D) {
	c.rotation = r
	c.body.SetAngle(r.Y)
}

func (c *Car) velocity() navigation.Point3D {
	v := c.body.Velocity()
	return navigation.NewPoint3D(v.X, 0, v.Y)
}

func (c *Car) state() CarState {
	return CarState{
		Position: c.Position(),
		Velocity: c.velocity(),
		Rotation: c.rotation,
	}
}
