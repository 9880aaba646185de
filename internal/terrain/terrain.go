// Package terrain wraps the landscape vertex cloud behind the height queries
// the sampler and the placement engine share.
package terrain

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"scenegen/internal/geom"
	"scenegen/internal/spatial"
)

// ErrRetryExhausted is returned when height resolution fails to settle within
// the attempt budget.
var ErrRetryExhausted = errors.New("terrain: height resolution retries exhausted")

const maxSnapAttempts = 10_000

// Terrain owns the spatial index over the landscape vertices. Built once per
// session from a snapshot of the scene; read-only afterwards.
type Terrain struct {
	index *spatial.Index
}

// New indexes the world-space vertices of the landscape object.
func New(landscape geom.Bounded) (*Terrain, error) {
	index, err := spatial.Build(landscape.WorldVertices())
	if err != nil {
		return nil, fmt.Errorf("index landscape vertices: %w", err)
	}
	return &Terrain{index: index}, nil
}

// FromPoints indexes an explicit vertex cloud.
func FromPoints(points []r3.Vec) (*Terrain, error) {
	index, err := spatial.Build(points)
	if err != nil {
		return nil, fmt.Errorf("index terrain points: %w", err)
	}
	return &Terrain{index: index}, nil
}

// Index exposes the underlying spatial index for callers that need raw
// nearest-neighbour access.
func (t *Terrain) Index() *spatial.Index { return t.index }

// GroundLevel returns the height of the terrain vertex nearest the query's
// horizontal position.
func (t *Terrain) GroundLevel(p r3.Vec) (float64, error) {
	nearest, err := t.index.NearestXY(p)
	if err != nil {
		return 0, err
	}
	return nearest.Point.Z, nil
}

// Snap resolves a location's height against the terrain. The location is
// accepted once its Z lies within (ground-dig, ground]; otherwise Z is set to
// ground minus a uniform draw from [0, dig) and re-checked. Accepted inputs
// pass through unchanged, so resolving an already-resolved location is a
// no-op.
func (t *Terrain) Snap(location r3.Vec, dig float64, rng *rand.Rand) (r3.Vec, error) {
	if dig < 0 {
		return r3.Vec{}, fmt.Errorf("terrain: snap: dig tolerance %v is negative", dig)
	}
	draw := distuv.Uniform{Min: 0, Max: dig, Src: rng}
	for attempt := 0; attempt < maxSnapAttempts; attempt++ {
		ground, err := t.GroundLevel(location)
		if err != nil {
			return r3.Vec{}, err
		}
		if location.Z <= ground && location.Z > ground-dig {
			return location, nil
		}
		if dig == 0 {
			location.Z = ground
			return location, nil
		}
		location.Z = ground - draw.Rand()
	}
	return r3.Vec{}, fmt.Errorf("%w at (%.3f, %.3f)", ErrRetryExhausted, location.X, location.Y)
}
