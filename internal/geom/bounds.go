package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoObjects is returned when a bounding volume is requested for an empty
// object set.
var ErrNoObjects = errors.New("geom: no objects to bound")

// Bounded is the geometry-facing slice of a scene object: enough to compute
// bounding volumes without touching the scene graph itself.
type Bounded interface {
	// WorldTransform returns the object's placed pose.
	WorldTransform() Transform
	// WorldVertices returns every vertex in world coordinates.
	WorldVertices() []r3.Vec
	// BoundCorners returns the eight local bounding-box corners in the
	// conventional order: index 0..3 sweep the -X face as
	// (-,-,-), (-,-,+), (-,+,+), (-,+,-) and 4..7 mirror them on +X.
	BoundCorners() [8]r3.Vec
}

// BoundingBox is an axis-aligned box with Min[i] <= Max[i] on every axis.
type BoundingBox struct {
	Min r3.Vec
	Max r3.Vec
}

// Corner returns the box corner with the given index, using the same
// enumeration as Bounded.BoundCorners.
func (b BoundingBox) Corner(i int) r3.Vec {
	xs := [8]float64{b.Min.X, b.Min.X, b.Min.X, b.Min.X, b.Max.X, b.Max.X, b.Max.X, b.Max.X}
	ys := [8]float64{b.Min.Y, b.Min.Y, b.Max.Y, b.Max.Y, b.Min.Y, b.Min.Y, b.Max.Y, b.Max.Y}
	zs := [8]float64{b.Min.Z, b.Max.Z, b.Max.Z, b.Min.Z, b.Min.Z, b.Max.Z, b.Max.Z, b.Min.Z}
	return r3.Vec{X: xs[i], Y: ys[i], Z: zs[i]}
}

// Corners returns all eight corners in conventional order.
func (b BoundingBox) Corners() [8]r3.Vec {
	var out [8]r3.Vec
	for i := range out {
		out[i] = b.Corner(i)
	}
	return out
}

// BoundingSphere approximately encloses a set of objects. Depending on the
// construction algorithm the enclosure may be loose; see CornerSphere.
type BoundingSphere struct {
	Centre r3.Vec
	Radius float64
}

// Contains reports whether the point lies inside or on the sphere.
func (s BoundingSphere) Contains(p r3.Vec) bool {
	return r3.Norm(r3.Sub(p, s.Centre)) <= s.Radius
}

// ObjectBox computes the world-space axis-aligned bounding box of a single
// object by reducing its transformed vertices per axis.
func ObjectBox(obj Bounded) (BoundingBox, error) {
	verts := obj.WorldVertices()
	if len(verts) == 0 {
		return BoundingBox{}, ErrNoObjects
	}
	box := BoundingBox{Min: verts[0], Max: verts[0]}
	for _, v := range verts[1:] {
		box.Min.X = math.Min(box.Min.X, v.X)
		box.Min.Y = math.Min(box.Min.Y, v.Y)
		box.Min.Z = math.Min(box.Min.Z, v.Z)
		box.Max.X = math.Max(box.Max.X, v.X)
		box.Max.Y = math.Max(box.Max.Y, v.Y)
		box.Max.Z = math.Max(box.Max.Z, v.Z)
	}
	return box, nil
}

// CornerSphere computes the historical corner-heuristic bounding sphere over a
// set of objects. For each of the eight corner-selector indices the per-axis
// extreme of every object's world-transformed local corner is taken, with the
// axis-0 min/max choice XORed with bit 1 of the index (corner order on the
// low bits is cyclic: 0 -> 00, 1 -> 01, 2 -> 11, 3 -> 10). The centre defaults
// to the mean of the eight hull points and the radius to the largest distance
// from the centre to any of them.
//
// The sphere is an approximation, not a minimal enclosure, and is known to
// come out oversized or off-centre for some inputs. The exact enumeration is
// kept for compatibility with previously generated datasets; RitterSphere is
// the tighter alternative.
func CornerSphere(objects []Bounded, centre *r3.Vec) (BoundingSphere, error) {
	if len(objects) == 0 {
		return BoundingSphere{}, ErrNoObjects
	}

	var hull [8]r3.Vec
	for i := 0; i < 8; i++ {
		var point [3]float64
		for j := 0; j < 3; j++ {
			isMax := (i >> uint(j)) & 1
			if j == 0 {
				isMax ^= (i >> 1) & 1
			}
			extreme := math.Inf(1)
			if isMax == 1 {
				extreme = math.Inf(-1)
			}
			for _, obj := range objects {
				corner := obj.WorldTransform().Apply(obj.BoundCorners()[i])
				value := component(corner, j)
				if isMax == 1 {
					extreme = math.Max(extreme, value)
				} else {
					extreme = math.Min(extreme, value)
				}
			}
			point[j] = extreme
		}
		hull[i] = r3.Vec{X: point[0], Y: point[1], Z: point[2]}
	}

	var sphere BoundingSphere
	if centre != nil {
		sphere.Centre = *centre
	} else {
		var sum r3.Vec
		for _, p := range hull {
			sum = r3.Add(sum, p)
		}
		sphere.Centre = r3.Scale(1.0/8.0, sum)
	}
	for _, p := range hull {
		sphere.Radius = math.Max(sphere.Radius, r3.Norm(r3.Sub(p, sphere.Centre)))
	}
	return sphere, nil
}

// RitterSphere computes a near-minimal bounding sphere of the objects' world
// corner points using Ritter's two-pass algorithm. Tighter than CornerSphere
// but not bit-compatible with historical outputs; callers opt in explicitly.
func RitterSphere(objects []Bounded) (BoundingSphere, error) {
	if len(objects) == 0 {
		return BoundingSphere{}, ErrNoObjects
	}
	var points []r3.Vec
	for _, obj := range objects {
		transform := obj.WorldTransform()
		for _, corner := range obj.BoundCorners() {
			points = append(points, transform.Apply(corner))
		}
	}

	// Pass 1: a point far from an arbitrary start, then the point farthest
	// from it, give the initial diameter.
	far := farthestFrom(points[0], points)
	opposite := farthestFrom(far, points)
	centre := r3.Scale(0.5, r3.Add(far, opposite))
	radius := r3.Norm(r3.Sub(opposite, far)) / 2

	// Pass 2: grow the sphere to admit stragglers.
	for _, p := range points {
		d := r3.Norm(r3.Sub(p, centre))
		if d > radius {
			grown := (radius + d) / 2
			centre = r3.Add(centre, r3.Scale((grown-radius)/d, r3.Sub(p, centre)))
			radius = grown
		}
	}
	return BoundingSphere{Centre: centre, Radius: radius}, nil
}

func farthestFrom(from r3.Vec, points []r3.Vec) r3.Vec {
	best := from
	bestDist := -1.0
	for _, p := range points {
		if d := r3.Norm(r3.Sub(p, from)); d > bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
