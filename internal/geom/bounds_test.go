package geom

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// boxObject is a minimal Bounded over an axis-aligned local box.
type boxObject struct {
	transform Transform
	box       BoundingBox
}

func newBoxObject(location r3.Vec, halfExtent float64) *boxObject {
	return &boxObject{
		transform: Transform{Location: location},
		box: BoundingBox{
			Min: r3.Vec{X: -halfExtent, Y: -halfExtent, Z: -halfExtent},
			Max: r3.Vec{X: halfExtent, Y: halfExtent, Z: halfExtent},
		},
	}
}

func (o *boxObject) WorldTransform() Transform { return o.transform }

func (o *boxObject) WorldVertices() []r3.Vec {
	corners := o.box.Corners()
	out := make([]r3.Vec, len(corners))
	for i, c := range corners {
		out[i] = o.transform.Apply(c)
	}
	return out
}

func (o *boxObject) BoundCorners() [8]r3.Vec { return o.box.Corners() }

func TestBoundingBoxCornerOrder(t *testing.T) {
	box := BoundingBox{Min: r3.Vec{X: -1, Y: -2, Z: -3}, Max: r3.Vec{X: 1, Y: 2, Z: 3}}
	want := [8]r3.Vec{
		{X: -1, Y: -2, Z: -3},
		{X: -1, Y: -2, Z: 3},
		{X: -1, Y: 2, Z: 3},
		{X: -1, Y: 2, Z: -3},
		{X: 1, Y: -2, Z: -3},
		{X: 1, Y: -2, Z: 3},
		{X: 1, Y: 2, Z: 3},
		{X: 1, Y: 2, Z: -3},
	}
	if got := box.Corners(); got != want {
		t.Fatalf("corner order mismatch:\nwant: %v\n got: %v", want, got)
	}
}

func TestObjectBox(t *testing.T) {
	obj := newBoxObject(r3.Vec{X: 10, Y: 0, Z: 5}, 1)
	box, err := ObjectBox(obj)
	if err != nil {
		t.Fatalf("object box: %v", err)
	}
	wantMin := r3.Vec{X: 9, Y: -1, Z: 4}
	wantMax := r3.Vec{X: 11, Y: 1, Z: 6}
	if !vecClose(box.Min, wantMin, 1e-12) || !vecClose(box.Max, wantMax, 1e-12) {
		t.Fatalf("object box: got %v..%v want %v..%v", box.Min, box.Max, wantMin, wantMax)
	}
}

func TestCornerSphereTwoSeparatedBoxes(t *testing.T) {
	objects := []Bounded{
		newBoxObject(r3.Vec{X: -5, Y: 0, Z: 1}, 1),
		newBoxObject(r3.Vec{X: 5, Y: 0, Z: 1}, 1),
	}
	sphere, err := CornerSphere(objects, nil)
	if err != nil {
		t.Fatalf("corner sphere: %v", err)
	}
	if want := (r3.Vec{X: 0, Y: 0, Z: 1}); !vecClose(sphere.Centre, want, 1e-12) {
		t.Fatalf("centre: got %v want %v", sphere.Centre, want)
	}
	// The farthest hull point sits at offset (6, 1, 1) from the centre.
	if want := math.Sqrt(38); math.Abs(sphere.Radius-want) > 1e-12 {
		t.Fatalf("radius: got %v want %v", sphere.Radius, want)
	}
}

func TestCornerSphereFixedCentre(t *testing.T) {
	objects := []Bounded{newBoxObject(r3.Vec{X: 2, Y: 0, Z: 0}, 1)}
	centre := r3.Vec{}
	sphere, err := CornerSphere(objects, &centre)
	if err != nil {
		t.Fatalf("corner sphere: %v", err)
	}
	if sphere.Centre != centre {
		t.Fatalf("centre was not pinned: got %v", sphere.Centre)
	}
	// Farthest corner of the box from the origin is (3, 1, 1).
	if want := math.Sqrt(11); math.Abs(sphere.Radius-want) > 1e-12 {
		t.Fatalf("radius: got %v want %v", sphere.Radius, want)
	}
}

func TestCornerSphereEnclosesAxisAlignedCorners(t *testing.T) {
	objects := []Bounded{
		newBoxObject(r3.Vec{X: -3, Y: 2, Z: 0}, 1.5),
		newBoxObject(r3.Vec{X: 4, Y: -1, Z: 2}, 0.5),
		newBoxObject(r3.Vec{X: 0, Y: 6, Z: -1}, 2),
	}
	sphere, err := CornerSphere(objects, nil)
	if err != nil {
		t.Fatalf("corner sphere: %v", err)
	}
	for _, obj := range objects {
		for _, v := range obj.WorldVertices() {
			if d := r3.Norm(r3.Sub(v, sphere.Centre)); d > sphere.Radius+1e-9 {
				t.Fatalf("corner %v outside sphere: distance %v radius %v", v, d, sphere.Radius)
			}
		}
	}
}

func TestRitterSphereContainsAllCorners(t *testing.T) {
	objects := []Bounded{
		newBoxObject(r3.Vec{X: -5, Y: 0, Z: 1}, 1),
		newBoxObject(r3.Vec{X: 5, Y: 0, Z: 1}, 1),
		newBoxObject(r3.Vec{X: 0, Y: 8, Z: -2}, 0.25),
	}
	sphere, err := RitterSphere(objects)
	if err != nil {
		t.Fatalf("ritter sphere: %v", err)
	}
	for _, obj := range objects {
		transform := obj.WorldTransform()
		for _, c := range obj.BoundCorners() {
			p := transform.Apply(c)
			if !sphere.Contains(p) && r3.Norm(r3.Sub(p, sphere.Centre)) > sphere.Radius+1e-9 {
				t.Fatalf("corner %v outside sphere %v r=%v", p, sphere.Centre, sphere.Radius)
			}
		}
	}
}

func TestRitterSphereTighterThanCorner(t *testing.T) {
	objects := []Bounded{
		newBoxObject(r3.Vec{X: -5, Y: 0, Z: 1}, 1),
		newBoxObject(r3.Vec{X: 5, Y: 0, Z: 1}, 1),
	}
	corner, err := CornerSphere(objects, nil)
	if err != nil {
		t.Fatalf("corner sphere: %v", err)
	}
	ritter, err := RitterSphere(objects)
	if err != nil {
		t.Fatalf("ritter sphere: %v", err)
	}
	if ritter.Radius > corner.Radius {
		t.Fatalf("ritter radius %v exceeds corner radius %v", ritter.Radius, corner.Radius)
	}
}

func TestBoundingSpheresRejectEmptyInput(t *testing.T) {
	if _, err := CornerSphere(nil, nil); !errors.Is(err, ErrNoObjects) {
		t.Fatalf("corner sphere on empty input: got %v want ErrNoObjects", err)
	}
	if _, err := RitterSphere(nil); !errors.Is(err, ErrNoObjects) {
		t.Fatalf("ritter sphere on empty input: got %v want ErrNoObjects", err)
	}
}
