package scene

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"scenegen/internal/geom"
)

// MemoryScene is an in-process Provider over a snapshot of objects. It backs
// the CLIs (which load a snapshot exported by the host tool) and the tests.
type MemoryScene struct {
	objects []*MemoryObject
}

// NewMemoryScene creates a scene over the given objects.
func NewMemoryScene(objects ...*MemoryObject) *MemoryScene {
	s := &MemoryScene{}
	for _, obj := range objects {
		s.Attach(obj)
	}
	return s
}

// Objects returns the scene's placeable objects in snapshot order, with
// duplicates appended after the objects they were cloned from.
func (s *MemoryScene) Objects() []PlaceableObject {
	out := make([]PlaceableObject, len(s.objects))
	for i, obj := range s.objects {
		out[i] = obj
	}
	return out
}

// Remove detaches an object from the scene, typically the landscape before a
// bounding-sphere computation.
func (s *MemoryScene) Remove(id ObjectID) {
	for i, obj := range s.objects {
		if obj.id == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return
		}
	}
}

// MemoryObject is a concrete PlaceableObject holding its own geometry.
type MemoryObject struct {
	scene     *MemoryScene
	id        ObjectID
	transform geom.Transform
	vertices  []r3.Vec // local coordinates
	corners   [8]r3.Vec
}

// NewMemoryObject builds an object from local-space vertices. The local
// bounding-box corners are derived from the vertices' extents.
func NewMemoryObject(id ObjectID, transform geom.Transform, vertices []r3.Vec) *MemoryObject {
	obj := &MemoryObject{id: id, transform: transform, vertices: vertices}
	obj.corners = localCorners(vertices)
	return obj
}

func localCorners(vertices []r3.Vec) [8]r3.Vec {
	if len(vertices) == 0 {
		return [8]r3.Vec{}
	}
	box := geom.BoundingBox{Min: vertices[0], Max: vertices[0]}
	for _, v := range vertices[1:] {
		box.Min.X = min(box.Min.X, v.X)
		box.Min.Y = min(box.Min.Y, v.Y)
		box.Min.Z = min(box.Min.Z, v.Z)
		box.Max.X = max(box.Max.X, v.X)
		box.Max.Y = max(box.Max.Y, v.Y)
		box.Max.Z = max(box.Max.Z, v.Z)
	}
	return box.Corners()
}

func (o *MemoryObject) ID() ObjectID { return o.id }

func (o *MemoryObject) WorldTransform() geom.Transform { return o.transform }

func (o *MemoryObject) WorldVertices() []r3.Vec {
	out := make([]r3.Vec, len(o.vertices))
	for i, v := range o.vertices {
		out[i] = o.transform.Apply(v)
	}
	return out
}

func (o *MemoryObject) BoundCorners() [8]r3.Vec { return o.corners }

func (o *MemoryObject) SetLocation(loc r3.Vec) { o.transform.Location = loc }

func (o *MemoryObject) SetRotation(rot geom.Euler) { o.transform.Rotation = rot }

// Duplicate clones the object into its scene with the next free instance
// index of the same kind. Linked duplicates share vertex storage the way
// linked duplicates in the host tool share mesh data.
func (o *MemoryObject) Duplicate(linked bool) (PlaceableObject, error) {
	if o.scene == nil {
		return nil, fmt.Errorf("scene: duplicate %s: object is not attached to a scene", o.id)
	}
	next := 0
	for _, other := range o.scene.objects {
		if other.id.BaseKind == o.id.BaseKind && other.id.InstanceIndex >= next {
			next = other.id.InstanceIndex + 1
		}
	}
	clone := &MemoryObject{
		scene:     o.scene,
		id:        ObjectID{BaseKind: o.id.BaseKind, InstanceIndex: next},
		transform: o.transform,
		corners:   o.corners,
	}
	if linked {
		clone.vertices = o.vertices
	} else {
		clone.vertices = make([]r3.Vec, len(o.vertices))
		copy(clone.vertices, o.vertices)
	}
	o.scene.objects = append(o.scene.objects, clone)
	return clone, nil
}

// Attach registers the object with a scene so that duplicates land somewhere.
func (s *MemoryScene) Attach(obj *MemoryObject) {
	obj.scene = s
	s.objects = append(s.objects, obj)
}
