package navigation

import "github.com/go-gl/mathgl/mgl64"

// Point3D is a world-space position or vector. The y axis points up.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func NewPoint3D(x, y, z float64) Point3D {
	return Point3D{X: x, Y: y, Z: z}
}

// FromVec converts a mathgl vector.
func FromVec(v mgl64.Vec3) Point3D {
	return Point3D{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// Vec returns the point as a mathgl vector.
func (p Point3D) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

func (p Point3D) Plus(o Point3D) Point3D {
	return FromVec(p.Vec().Add(o.Vec()))
}

func (p Point3D) Minus(o Point3D) Point3D {
	return FromVec(p.Vec().Sub(o.Vec()))
}

func (p Point3D) Times(s float64) Point3D {
	return FromVec(p.Vec().Mul(s))
}

func (p Point3D) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0
}
