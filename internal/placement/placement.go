// Package placement grows repeated scene elements across the terrain: either
// at externally supplied target coordinates (snapping to terrain height) or
// by randomised scattering with pairwise clearance against already-placed
// instances and configured obstacles.
package placement

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"scenegen/internal/geom"
	"scenegen/internal/scene"
	"scenegen/internal/spatial"
	"scenegen/internal/terrain"
)

// ErrRetryExhausted marks a scattering loop that could not find a clearing
// within the attempt budget.
var ErrRetryExhausted = errors.New("placement: clearance retries exhausted")

const defaultMaxAttempts = 10_000

// Record is one resolved or pending placement. Once Fixed, the location and
// rotation are authoritative and must not be recomputed on later runs.
type Record struct {
	Location [3]float64 `json:"location"`
	Rotation [3]float64 `json:"rotation"`
	Fixed    bool       `json:"fixed"`
}

// Options tunes the grower.
type Options struct {
	// Scale is the mean of the exponential horizontal offset between a
	// parent and a scattered child.
	Scale float64
	// Clearance is the minimum horizontal separation between a candidate
	// and any already-placed instance or blocking obstacle.
	Clearance float64
	// Dig is the tolerance band below ground level that a resolved height
	// may sit in.
	Dig float64
	// InitialHeight seeds the first height resolution.
	InitialHeight float64
	// MaxAttempts bounds each scatter draw; zero means the default.
	MaxAttempts int
	// UseClearanceIndex switches the same-kind clearance check from the
	// pairwise scan to an R-tree; worthwhile beyond a few hundred
	// instances per kind.
	UseClearanceIndex bool
}

// Grower places instances on the terrain. It owns a single random source and
// is not safe for concurrent use; independent seed groups must use separate
// growers.
type Grower struct {
	opts       Options
	terrain    *terrain.Terrain
	avoidance  *spatial.Index // obstacle vertices, optional
	rng        *rand.Rand
	lastHeight float64
}

// New creates a grower. avoidance may be nil when there are no obstacles
// beyond the instances themselves.
func New(opts Options, terr *terrain.Terrain, avoidance *spatial.Index, rng *rand.Rand) (*Grower, error) {
	if terr == nil {
		return nil, errors.New("placement: terrain is required")
	}
	if opts.Scale <= 0 {
		return nil, fmt.Errorf("placement: scatter scale %v must be positive", opts.Scale)
	}
	if opts.Clearance < 0 {
		return nil, fmt.Errorf("placement: clearance %v cannot be negative", opts.Clearance)
	}
	if opts.Dig < 0 {
		return nil, fmt.Errorf("placement: dig tolerance %v cannot be negative", opts.Dig)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &Grower{
		opts:       opts,
		terrain:    terr,
		avoidance:  avoidance,
		rng:        rng,
		lastHeight: opts.InitialHeight,
	}, nil
}

// resolveHeight snaps a location to the terrain, seeding the draw from the
// previously resolved height so successive placements start near the ground.
func (g *Grower) resolveHeight(location r3.Vec) (r3.Vec, error) {
	location.Z = g.lastHeight
	resolved, err := g.terrain.Snap(location, g.opts.Dig, g.rng)
	if err != nil {
		return r3.Vec{}, err
	}
	g.lastHeight = resolved.Z
	return resolved, nil
}

func (g *Grower) randomYaw() geom.Euler {
	return geom.Euler{Z: g.rng.Float64() * 2 * math.Pi}
}

// GrowAll applies target records to the instances of each group key in
// order. Records are paired with existing instances positionally; targets
// beyond the existing instances get new instances duplicated from the last
// one, while surplus instances are left untouched. A record that is not yet
// fixed has its height resolved and a random yaw assigned exactly once.
func (g *Grower) GrowAll(provider scene.Provider, targets *scene.Groups[*Record]) error {
	for _, key := range targets.Keys() {
		if err := g.growGroup(provider, key, targets.Get(key)); err != nil {
			return fmt.Errorf("grow group %q: %w", key, err)
		}
	}
	return nil
}

func (g *Grower) growGroup(provider scene.Provider, key string, records []*Record) error {
	instances := scene.Instances(provider, key)
	if len(instances) == 0 && len(records) > 0 {
		return fmt.Errorf("no instances of kind %q to place", key)
	}

	for i, record := range records {
		var instance scene.PlaceableObject
		if i < len(instances) {
			instance = instances[i]
		} else {
			grown, err := instances[len(instances)-1].Duplicate(true)
			if err != nil {
				return fmt.Errorf("duplicate instance %d: %w", i, err)
			}
			instance = grown
		}

		if !record.Fixed {
			location := r3.Vec{X: record.Location[0], Y: record.Location[1], Z: record.Location[2]}
			resolved, err := g.resolveHeight(location)
			if err != nil {
				return fmt.Errorf("resolve height for target %d: %w", i, err)
			}
			record.Location = [3]float64{resolved.X, resolved.Y, resolved.Z}
			record.Rotation = g.randomYaw().Array()
			record.Fixed = true
		}

		instance.SetLocation(r3.Vec{X: record.Location[0], Y: record.Location[1], Z: record.Location[2]})
		instance.SetRotation(geom.EulerFromArray(record.Rotation))
	}
	return nil
}

// GrowTrees scatters count new instances starting from the seed, each grown
// from the previously placed one. The clearing set starts from the seed plus
// every instance in existing (pre-existing placements of this kind and of any
// other scattered kind), and every new instance immediately joins it. The
// returned slice is the seed followed by every new instance in placement
// order.
func (g *Grower) GrowTrees(count int, seed scene.PlaceableObject, existing []scene.PlaceableObject) ([]scene.PlaceableObject, error) {
	if seed == nil {
		return nil, errors.New("placement: seed instance is required")
	}
	placed := []scene.PlaceableObject{seed}
	blockers := make([]scene.PlaceableObject, 0, len(existing)+1)
	blockers = append(blockers, existing...)
	blockers = append(blockers, seed)
	clearing := g.newClearingSet(blockers)
	for remaining := count; remaining > 0; remaining-- {
		log.WithFields(log.Fields{"kind": seed.ID().BaseKind, "remaining": remaining}).
			Debug("still growing")
		grown, err := g.growNear(placed[len(placed)-1], clearing)
		if err != nil {
			return placed, err
		}
		clearing.add(grown.WorldTransform().Location)
		placed = append(placed, grown)
	}
	return placed, nil
}

// GrowTree places a single new instance near the parent, treating placed as
// the same-kind obstacle set.
func (g *Grower) GrowTree(parent scene.PlaceableObject, placed []scene.PlaceableObject) (scene.PlaceableObject, error) {
	return g.growNear(parent, g.newClearingSet(placed))
}

// growNear draws a horizontal offset with exponential distance and uniform
// angle, rejected until the candidate clears every already-placed sibling and
// every blocking obstacle, then snaps it to terrain height and realises it as
// a linked duplicate with a random yaw.
func (g *Grower) growNear(parent scene.PlaceableObject, clearing clearingSet) (scene.PlaceableObject, error) {
	distance := distuv.Exponential{Rate: 1 / g.opts.Scale, Src: g.rng}

	parentLocation := parent.WorldTransform().Location
	for attempt := 0; attempt < g.opts.MaxAttempts; attempt++ {
		d := distance.Rand()
		angle := g.rng.Float64() * 2 * math.Pi
		translate := r3.Vec{X: math.Cos(angle) * d, Y: math.Sin(angle) * d}
		candidate := r3.Add(parentLocation, translate)

		ok, err := g.foundClearing(clearing, candidate)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		resolved, err := g.resolveHeight(candidate)
		if err != nil {
			return nil, err
		}

		grown, err := parent.Duplicate(true)
		if err != nil {
			return nil, fmt.Errorf("duplicate %s: %w", parent.ID(), err)
		}
		grown.SetLocation(resolved)
		grown.SetRotation(g.randomYaw())
		return grown, nil
	}
	return nil, fmt.Errorf("%w: no clearing near %s after %d attempts",
		ErrRetryExhausted, parent.ID(), g.opts.MaxAttempts)
}

// foundClearing checks the candidate against the same-kind instances and,
// when an avoidance index is configured, against obstacle vertices. An
// obstacle only blocks when its local ground is at or above the candidate's
// expected ground level; obstacles sitting on lower ground are ignored so
// that elevated structure spanning a valley does not empty it.
func (g *Grower) foundClearing(clearing clearingSet, candidate r3.Vec) (bool, error) {
	if clearing.blocked(candidate, g.opts.Clearance) {
		return false, nil
	}
	if g.avoidance == nil {
		return true, nil
	}

	near, err := g.avoidance.WithinXY(candidate, g.opts.Clearance)
	if err != nil {
		return false, err
	}
	if len(near) == 0 {
		return true, nil
	}
	candidateGround, err := g.terrain.GroundLevel(candidate)
	if err != nil {
		return false, err
	}
	for _, obstacle := range near {
		obstacleGround, err := g.terrain.GroundLevel(obstacle.Point)
		if err != nil {
			return false, err
		}
		if obstacleGround >= candidateGround {
			return false, nil
		}
	}
	return true, nil
}
