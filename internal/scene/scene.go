// Package scene defines the narrow boundary to the host scene graph. The
// geometry and placement algorithms only ever see PlaceableObject; the real
// scene (a DCC tool, an exporter, a test double) lives behind it.
package scene

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"scenegen/internal/geom"
)

// ObjectID identifies one instance of a repeated scene element. Instances of
// the same element share a BaseKind and are ordered by InstanceIndex, which
// replaces the host convention of encoding membership in name suffixes such
// as "Tree.003".
type ObjectID struct {
	BaseKind      string
	InstanceIndex int
}

func (id ObjectID) String() string {
	if id.InstanceIndex == 0 {
		return id.BaseKind
	}
	return fmt.Sprintf("%s.%03d", id.BaseKind, id.InstanceIndex)
}

// ParseObjectName converts a host object name such as "Tree.003" into a typed
// identifier. Names without a numeric suffix map to instance 0. This parsing
// exists only at the snapshot boundary; everything past it uses ObjectID.
func ParseObjectName(name string) ObjectID {
	base, suffix, found := strings.Cut(name, ".")
	if !found {
		return ObjectID{BaseKind: name}
	}
	index, err := strconv.Atoi(suffix)
	if err != nil || index < 0 {
		return ObjectID{BaseKind: name}
	}
	return ObjectID{BaseKind: base, InstanceIndex: index}
}

// PlaceableObject is the unit of computation for every geometry algorithm:
// a world transform, world-space vertices, local bounding-box corners and the
// three mutations the placement engine needs.
type PlaceableObject interface {
	geom.Bounded

	ID() ObjectID
	// Duplicate creates a sibling instance with the next free InstanceIndex
	// of the same BaseKind. A linked duplicate shares underlying geometry.
	Duplicate(linked bool) (PlaceableObject, error)
	SetLocation(loc r3.Vec)
	SetRotation(rot geom.Euler)
}

// Provider supplies the placeable objects of a scene snapshot.
type Provider interface {
	Objects() []PlaceableObject
}

// Instances returns the objects of one BaseKind ordered by InstanceIndex.
func Instances(p Provider, kind string) []PlaceableObject {
	var out []PlaceableObject
	for _, obj := range p.Objects() {
		if obj.ID().BaseKind == kind {
			out = append(out, obj)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID().InstanceIndex < out[j].ID().InstanceIndex
	})
	return out
}

// Groups maps a key to an ordered list of values. Reading an absent key
// returns an empty list without inserting one; appending is an explicit
// operation, never a side effect of a read.
type Groups[T any] struct {
	members map[string][]T
}

// NewGroups returns an empty grouping.
func NewGroups[T any]() *Groups[T] {
	return &Groups[T]{members: make(map[string][]T)}
}

// Get returns the values of key. The result is a copy; mutating it does not
// affect the group.
func (g *Groups[T]) Get(key string) []T {
	values := g.members[key]
	if len(values) == 0 {
		return nil
	}
	out := make([]T, len(values))
	copy(out, values)
	return out
}

// Append adds values to the end of key's list, creating the key if needed.
func (g *Groups[T]) Append(key string, values ...T) {
	g.members[key] = append(g.members[key], values...)
}

// Len returns the number of values stored under key.
func (g *Groups[T]) Len(key string) int {
	return len(g.members[key])
}

// Keys returns the group keys in sorted order.
func (g *Groups[T]) Keys() []string {
	keys := make([]string, 0, len(g.members))
	for key := range g.members {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
