// Package spatial implements a balanced k-d tree over a fixed point cloud.
// An index is built once from a snapshot of points (terrain vertices, or
// obstacle vertices) and answers exact nearest-neighbour queries afterwards;
// there is no insertion or removal after the build.
package spatial

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyIndex is returned when building from, or querying, an index with no
// points. Queries must fail loudly rather than return a sentinel point.
var ErrEmptyIndex = errors.New("spatial: index has no points")

type node struct {
	point       r3.Vec
	index       int
	axis        int
	left, right *node
}

// Index is a balanced point-search structure with k-d tree semantics. It is
// read-only after Build and safe for concurrent queries.
type Index struct {
	root *node
	size int
}

// Build constructs a balanced index over the given points in O(n log n).
// The point order determines tie-breaking, so a fixed build order yields
// deterministic results.
func Build(points []r3.Vec) (*Index, error) {
	if len(points) == 0 {
		return nil, ErrEmptyIndex
	}
	entries := make([]entry, len(points))
	for i, p := range points {
		entries[i] = entry{point: p, index: i}
	}
	return &Index{root: build(entries, 0), size: len(points)}, nil
}

type entry struct {
	point r3.Vec
	index int
}

func build(entries []entry, depth int) *node {
	if len(entries) == 0 {
		return nil
	}
	axis := depth % 3
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := component(entries[i].point, axis), component(entries[j].point, axis)
		if a != b {
			return a < b
		}
		return entries[i].index < entries[j].index
	})
	median := len(entries) / 2
	n := &node{
		point: entries[median].point,
		index: entries[median].index,
		axis:  axis,
	}
	n.left = build(entries[:median], depth+1)
	n.right = build(entries[median+1:], depth+1)
	return n
}

// Len returns the number of indexed points.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.size
}

// Result is a single nearest-neighbour answer.
type Result struct {
	Point    r3.Vec
	Index    int
	Distance float64
}

// Nearest returns the indexed point closest to query under Euclidean
// distance. Ties resolve to the point with the smallest build index.
func (ix *Index) Nearest(query r3.Vec) (Result, error) {
	if ix == nil || ix.root == nil {
		return Result{}, ErrEmptyIndex
	}
	best := Result{Index: -1, Distance: math.Inf(1)}
	search(ix.root, query, distance3, true, &best)
	return best, nil
}

// NearestXY returns the indexed point whose XY projection is closest to the
// query's XY projection. The Z components of both the query and the stored
// points are ignored for the metric, so terrain height lookups are unaffected
// by the height of the probe.
func (ix *Index) NearestXY(query r3.Vec) (Result, error) {
	if ix == nil || ix.root == nil {
		return Result{}, ErrEmptyIndex
	}
	best := Result{Index: -1, Distance: math.Inf(1)}
	search(ix.root, query, distanceXY, false, &best)
	return best, nil
}

// WithinXY returns every indexed point whose XY projection lies within radius
// of the query's XY projection, ordered by build index.
func (ix *Index) WithinXY(query r3.Vec, radius float64) ([]Result, error) {
	if ix == nil || ix.root == nil {
		return nil, ErrEmptyIndex
	}
	var out []Result
	within(ix.root, query, radius, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func search(n *node, query r3.Vec, metric func(a, b r3.Vec) float64, pruneZ bool, best *Result) {
	if n == nil {
		return
	}
	d := metric(n.point, query)
	if d < best.Distance || (d == best.Distance && n.index < best.Index) {
		*best = Result{Point: n.point, Index: n.index, Distance: d}
	}

	diff := component(query, n.axis) - component(n.point, n.axis)
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	search(near, query, metric, pruneZ, best)

	// The splitting plane on the Z axis carries no information for an XY
	// metric, so both sides must be visited in that case.
	if !pruneZ && n.axis == 2 {
		search(far, query, metric, pruneZ, best)
		return
	}
	if math.Abs(diff) <= best.Distance {
		search(far, query, metric, pruneZ, best)
	}
}

func within(n *node, query r3.Vec, radius float64, out *[]Result) {
	if n == nil {
		return
	}
	if d := distanceXY(n.point, query); d <= radius {
		*out = append(*out, Result{Point: n.point, Index: n.index, Distance: d})
	}
	diff := component(query, n.axis) - component(n.point, n.axis)
	if n.axis == 2 {
		within(n.left, query, radius, out)
		within(n.right, query, radius, out)
		return
	}
	if diff <= radius {
		within(n.left, query, radius, out)
	}
	if -diff <= radius {
		within(n.right, query, radius, out)
	}
}

func distance3(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

func distanceXY(a, b r3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
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
