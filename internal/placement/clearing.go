package placement

import (
	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/r3"

	"scenegen/internal/geom"
	"scenegen/internal/scene"
)

// clearingSet answers "is this candidate within clearance of an existing
// placement" and accepts new placements as they land.
type clearingSet interface {
	blocked(candidate r3.Vec, clearance float64) bool
	add(location r3.Vec)
}

func (g *Grower) newClearingSet(placed []scene.PlaceableObject) clearingSet {
	locations := make([]r3.Vec, len(placed))
	for i, obj := range placed {
		locations[i] = obj.WorldTransform().Location
	}
	if g.opts.UseClearanceIndex {
		return newIndexedClearing(locations)
	}
	set := linearClearing(locations)
	return &set
}

// linearClearing is the historical pairwise scan: quadratic in the number of
// placed instances, which is fine at the tens-of-instances scale the system
// targets.
type linearClearing []r3.Vec

func (c *linearClearing) blocked(candidate r3.Vec, clearance float64) bool {
	for _, location := range *c {
		if geom.HorizontalDistance(candidate, location) < clearance {
			return true
		}
	}
	return false
}

func (c *linearClearing) add(location r3.Vec) {
	*c = append(*c, location)
}

// indexedClearing keeps placements in an R-tree so the clearance query only
// visits nearby instances. Selected via Options.UseClearanceIndex for runs
// with large instance counts.
type indexedClearing struct {
	tree *rtreego.Rtree
}

type clearingEntry struct {
	location r3.Vec
}

func (e *clearingEntry) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRect(rtreego.Point{e.location.X, e.location.Y}, []float64{1e-9, 1e-9})
	return rect
}

func newIndexedClearing(locations []r3.Vec) *indexedClearing {
	c := &indexedClearing{tree: rtreego.NewTree(2, 4, 16)}
	for _, location := range locations {
		c.add(location)
	}
	return c
}

func (c *indexedClearing) blocked(candidate r3.Vec, clearance float64) bool {
	rect, err := rtreego.NewRect(
		rtreego.Point{candidate.X - clearance, candidate.Y - clearance},
		[]float64{2 * clearance, 2 * clearance},
	)
	if err != nil {
		return false
	}
	for _, hit := range c.tree.SearchIntersect(rect) {
		entry := hit.(*clearingEntry)
		if geom.HorizontalDistance(candidate, entry.location) < clearance {
			return true
		}
	}
	return false
}

func (c *indexedClearing) add(location r3.Vec) {
	c.tree.Insert(&clearingEntry{location: location})
}
