package scene

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"scenegen/internal/geom"
)

func cubeVertices(halfExtent float64) []r3.Vec {
	h := halfExtent
	return []r3.Vec{
		{X: -h, Y: -h, Z: -h}, {X: -h, Y: -h, Z: h}, {X: -h, Y: h, Z: h}, {X: -h, Y: h, Z: -h},
		{X: h, Y: -h, Z: -h}, {X: h, Y: -h, Z: h}, {X: h, Y: h, Z: h}, {X: h, Y: h, Z: -h},
	}
}

func TestParseObjectName(t *testing.T) {
	tests := []struct {
		name string
		want ObjectID
	}{
		{name: "Tree", want: ObjectID{BaseKind: "Tree"}},
		{name: "Tree.003", want: ObjectID{BaseKind: "Tree", InstanceIndex: 3}},
		{name: "Tree.000", want: ObjectID{BaseKind: "Tree"}},
		{name: "Camera", want: ObjectID{BaseKind: "Camera"}},
		{name: "Tree.abc", want: ObjectID{BaseKind: "Tree.abc"}},
		{name: "Tree.-1", want: ObjectID{BaseKind: "Tree.-1"}},
	}
	for _, tt := range tests {
		if got := ParseObjectName(tt.name); got != tt.want {
			t.Fatalf("parse %q: got %+v want %+v", tt.name, got, tt.want)
		}
	}
}

func TestObjectIDString(t *testing.T) {
	if got := (ObjectID{BaseKind: "Tree"}).String(); got != "Tree" {
		t.Fatalf("instance 0: got %q want %q", got, "Tree")
	}
	if got := (ObjectID{BaseKind: "Tree", InstanceIndex: 12}).String(); got != "Tree.012" {
		t.Fatalf("instance 12: got %q want %q", got, "Tree.012")
	}
}

func TestInstancesOrderedByIndex(t *testing.T) {
	s := NewMemoryScene(
		NewMemoryObject(ObjectID{BaseKind: "Tree", InstanceIndex: 2}, geom.Transform{}, cubeVertices(1)),
		NewMemoryObject(ObjectID{BaseKind: "Rock"}, geom.Transform{}, cubeVertices(1)),
		NewMemoryObject(ObjectID{BaseKind: "Tree"}, geom.Transform{}, cubeVertices(1)),
		NewMemoryObject(ObjectID{BaseKind: "Tree", InstanceIndex: 1}, geom.Transform{}, cubeVertices(1)),
	)
	trees := Instances(s, "Tree")
	if len(trees) != 3 {
		t.Fatalf("expected 3 trees, got %d", len(trees))
	}
	for i, obj := range trees {
		if obj.ID().InstanceIndex != i {
			t.Fatalf("tree %d has instance index %d", i, obj.ID().InstanceIndex)
		}
	}
	if got := Instances(s, "Missing"); len(got) != 0 {
		t.Fatalf("expected no instances of an absent kind, got %d", len(got))
	}
}

func TestDuplicateAssignsNextFreeIndex(t *testing.T) {
	seed := NewMemoryObject(ObjectID{BaseKind: "Tree"}, geom.Transform{Location: r3.Vec{X: 1}}, cubeVertices(1))
	s := NewMemoryScene(seed)

	first, err := seed.Duplicate(true)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if want := (ObjectID{BaseKind: "Tree", InstanceIndex: 1}); first.ID() != want {
		t.Fatalf("first duplicate id: got %+v want %+v", first.ID(), want)
	}

	second, err := first.Duplicate(true)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if want := (ObjectID{BaseKind: "Tree", InstanceIndex: 2}); second.ID() != want {
		t.Fatalf("second duplicate id: got %+v want %+v", second.ID(), want)
	}
	if len(s.Objects()) != 3 {
		t.Fatalf("scene should hold 3 objects, got %d", len(s.Objects()))
	}
}

func TestDuplicateCopiesTransform(t *testing.T) {
	seed := NewMemoryObject(ObjectID{BaseKind: "Tree"},
		geom.Transform{Location: r3.Vec{X: 1, Y: 2, Z: 3}, Rotation: geom.Euler{Z: 0.5}},
		cubeVertices(1))
	NewMemoryScene(seed)

	clone, err := seed.Duplicate(false)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if clone.WorldTransform() != seed.WorldTransform() {
		t.Fatalf("duplicate transform mismatch: got %+v want %+v",
			clone.WorldTransform(), seed.WorldTransform())
	}

	clone.SetLocation(r3.Vec{X: 9})
	if seed.WorldTransform().Location.X != 1 {
		t.Fatalf("moving the duplicate moved the seed")
	}
}

func TestDuplicateDetachedObjectFails(t *testing.T) {
	loose := NewMemoryObject(ObjectID{BaseKind: "Tree"}, geom.Transform{}, cubeVertices(1))
	if _, err := loose.Duplicate(true); err == nil {
		t.Fatalf("expected duplicating a detached object to fail")
	}
}

func TestRemoveDetachesObject(t *testing.T) {
	s := NewMemoryScene(
		NewMemoryObject(ObjectID{BaseKind: "Landscape"}, geom.Transform{}, cubeVertices(10)),
		NewMemoryObject(ObjectID{BaseKind: "Tree"}, geom.Transform{}, cubeVertices(1)),
	)
	s.Remove(ObjectID{BaseKind: "Landscape"})
	if got := len(s.Objects()); got != 1 {
		t.Fatalf("expected 1 object after removal, got %d", got)
	}
	if s.Objects()[0].ID().BaseKind != "Tree" {
		t.Fatalf("wrong object removed")
	}
}

func TestGroupsGetDoesNotInsert(t *testing.T) {
	groups := NewGroups[int]()
	if got := groups.Get("absent"); got != nil {
		t.Fatalf("get on an absent key: got %v want nil", got)
	}
	if keys := groups.Keys(); len(keys) != 0 {
		t.Fatalf("get must not create keys, got %v", keys)
	}
}

func TestGroupsAppendAndKeys(t *testing.T) {
	groups := NewGroups[string]()
	groups.Append("b", "x")
	groups.Append("a", "y", "z")
	groups.Append("b", "w")

	if got := groups.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("keys: got %v want [a b]", got)
	}
	if got := groups.Len("b"); got != 2 {
		t.Fatalf("len b: got %d want 2", got)
	}
	if got := groups.Get("a"); len(got) != 2 || got[0] != "y" || got[1] != "z" {
		t.Fatalf("get a: got %v", got)
	}
}

func TestGroupsGetReturnsCopy(t *testing.T) {
	groups := NewGroups[int]()
	groups.Append("k", 1, 2)
	values := groups.Get("k")
	values[0] = 99
	if got := groups.Get("k")[0]; got != 1 {
		t.Fatalf("mutating the returned slice changed the group: got %d", got)
	}
}
