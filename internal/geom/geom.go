// Package geom provides the world-space geometry vocabulary shared by the
// sampling and placement subsystems: Euler transforms, axis-aligned bounding
// boxes, approximate bounding spheres and camera-target line segments.
//
// All positions are gonum r3 vectors in world coordinates.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Euler is an XYZ rotation in radians, applied X first, then Y, then Z.
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the componentwise sum of two rotations.
func (e Euler) Add(o Euler) Euler {
	return Euler{X: e.X + o.X, Y: e.Y + o.Y, Z: e.Z + o.Z}
}

// Array returns the rotation as a fixed-size array for serialisation.
func (e Euler) Array() [3]float64 {
	return [3]float64{e.X, e.Y, e.Z}
}

// EulerFromArray builds a rotation from its serialised form.
func EulerFromArray(a [3]float64) Euler {
	return Euler{X: a[0], Y: a[1], Z: a[2]}
}

// Rotate applies the rotation to a point about the origin.
func (e Euler) Rotate(p r3.Vec) r3.Vec {
	cosX, sinX := math.Cos(e.X), math.Sin(e.X)
	cosY, sinY := math.Cos(e.Y), math.Sin(e.Y)
	cosZ, sinZ := math.Cos(e.Z), math.Sin(e.Z)

	y := p.Y*cosX - p.Z*sinX
	z := p.Y*sinX + p.Z*cosX
	p.Y, p.Z = y, z

	x := p.X*cosY + p.Z*sinY
	z = -p.X*sinY + p.Z*cosY
	p.X, p.Z = x, z

	x = p.X*cosZ - p.Y*sinZ
	y = p.X*sinZ + p.Y*cosZ
	p.X, p.Y = x, y

	return p
}

// Transform is a placed pose: a location, an Euler rotation and an optional
// scalar payload (the camera focal length when the pose belongs to a camera).
type Transform struct {
	Location r3.Vec
	Rotation Euler
	Scalar   float64
}

// Apply maps a point from local into world coordinates.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.Rotation.Rotate(p), t.Location)
}

// LineSegment is an alternative camera-location domain: candidate positions
// are drawn uniformly along the segment.
type LineSegment struct {
	Start r3.Vec
	End   r3.Vec
}

// At returns the point a fraction t of the way from Start to End.
func (l LineSegment) At(t float64) r3.Vec {
	return r3.Add(l.Start, r3.Scale(t, r3.Sub(l.End, l.Start)))
}

// HorizontalDistance returns the distance between two points projected onto
// the XY plane. Clearance checks between placements are horizontal.
func HorizontalDistance(a, b r3.Vec) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Hypot(dx, dy)
}
