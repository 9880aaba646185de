// Package sampler draws randomised, constraint-satisfying camera poses and
// sun rotations around a set of view targets.
//
// Targets are either named bounding spheres (the camera orbits a sphere at a
// distance derived from the vertical field of view) or named line segments
// (the camera sits on a line and rejection-samples a rotation that keeps at
// least one sphere centre in view). Terrain clearance constraints are checked
// against the landscape index.
package sampler

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"scenegen/internal/geom"
	"scenegen/internal/terrain"
)

var (
	// ErrConfiguration marks a missing or mutually inconsistent option.
	ErrConfiguration = errors.New("sampler: invalid configuration")
	// ErrRetryExhausted marks a rejection-sampling loop that ran out of
	// attempts without satisfying its constraint.
	ErrRetryExhausted = errors.New("sampler: rejection sampling retries exhausted")
)

const defaultMaxAttempts = 10_000

// GaussianSpec parameterises a normal draw.
type GaussianSpec struct {
	Mean  float64
	Sigma float64
}

// LogNormalSpec parameterises a lognormal draw; Mean is the approximate
// median and LogSigma the relative spread.
type LogNormalSpec struct {
	Mean     float64
	LogSigma float64
}

// Clearance constrains the camera height above the terrain. Exactly one of
// Range and Scalar may be set; the zero value means no clearance constraint
// beyond being above the nearest terrain vertex.
type Clearance struct {
	Range  *[2]float64
	Scalar *float64
}

// Config is the immutable sampler configuration.
type Config struct {
	DistanceFactor   GaussianSpec
	PolarAngleRange  *[2]float64
	Clearance        Clearance
	AbsoluteFloor    *float64
	Lens             LogNormalSpec
	OrientationNoise [3]float64
	FieldOfViewY     float64
	SunThetaRange    [2]float64

	// Line-mode parameters.
	PolarNoiseSigma float64
	LocationNoise   float64

	// MaxAttempts bounds every rejection loop; zero means the default.
	MaxAttempts int
}

// Pose is one accepted camera sample.
type Pose struct {
	Lens     float64
	Location r3.Vec
	Rotation geom.Euler
}

// Point is the full output of one view sample, persisted for
// reproducibility.
type Point struct {
	SunRotation    geom.Euler
	CameraLens     float64
	CameraLocation r3.Vec
	CameraRotation geom.Euler
}

// Sampler draws poses. It holds a snapshot of the targets and terrain taken
// at construction and is not safe for concurrent use (it owns a single
// random source).
type Sampler struct {
	cfg         Config
	spheres     map[string]geom.BoundingSphere
	sphereNames []string
	lines       map[string]geom.LineSegment
	lineNames   []string
	terrain     *terrain.Terrain
	rng         *rand.Rand
}

// New validates the configuration and target sets. At least one sphere is
// always required: sphere mode orbits them and line mode needs their centres
// for the in-view test.
func New(cfg Config, spheres map[string]geom.BoundingSphere, lines map[string]geom.LineSegment, terr *terrain.Terrain, rng *rand.Rand) (*Sampler, error) {
	if len(spheres) == 0 {
		return nil, fmt.Errorf("%w: no sphere targets configured", ErrConfiguration)
	}
	if cfg.Clearance.Range != nil && cfg.Clearance.Scalar != nil {
		return nil, fmt.Errorf("%w: clearance cannot be both a range and a scalar", ErrConfiguration)
	}
	if cfg.Clearance.Scalar != nil && cfg.PolarAngleRange == nil {
		return nil, fmt.Errorf("%w: scalar clearance requires a polar angle range", ErrConfiguration)
	}
	if cfg.FieldOfViewY <= 0 || cfg.FieldOfViewY >= math.Pi {
		return nil, fmt.Errorf("%w: field of view %v out of (0, pi)", ErrConfiguration, cfg.FieldOfViewY)
	}
	if (cfg.Clearance.Range != nil || cfg.Clearance.Scalar != nil) && terr == nil {
		return nil, fmt.Errorf("%w: clearance configured without terrain", ErrConfiguration)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	s := &Sampler{
		cfg:     cfg,
		spheres: spheres,
		lines:   lines,
		terrain: terr,
		rng:     rng,
	}
	for name := range spheres {
		s.sphereNames = append(s.sphereNames, name)
	}
	sort.Strings(s.sphereNames)
	for name := range lines {
		s.lineNames = append(s.lineNames, name)
	}
	sort.Strings(s.lineNames)
	return s, nil
}

// SunRotation draws a random sun orientation: polar angle uniform in the
// configured range, azimuth uniform over the full circle.
func (s *Sampler) SunRotation() geom.Euler {
	theta := distuv.Uniform{Min: s.cfg.SunThetaRange[0], Max: s.cfg.SunThetaRange[1], Src: s.rng}.Rand()
	phi := s.rng.Float64() * 2 * math.Pi
	return geom.Euler{X: theta, Z: phi}
}

// SamplePose draws one accepted camera pose. The focal length is drawn once
// per sample; the location and rotation are rejection-sampled in sphere or
// line mode depending on whether line targets are configured.
func (s *Sampler) SamplePose() (Pose, error) {
	lens := distuv.LogNormal{
		Mu:    math.Log(s.cfg.Lens.Mean),
		Sigma: s.cfg.Lens.LogSigma,
		Src:   s.rng,
	}.Rand()

	if len(s.lineNames) > 0 {
		return s.samplePoseLine(lens)
	}
	return s.samplePoseSphere(lens)
}

// SamplePoint draws a full view sample: sun rotation plus camera pose.
func (s *Sampler) SamplePoint() (Point, error) {
	sun := s.SunRotation()
	pose, err := s.SamplePose()
	if err != nil {
		return Point{}, err
	}
	return Point{
		SunRotation:    sun,
		CameraLens:     pose.Lens,
		CameraLocation: pose.Location,
		CameraRotation: pose.Rotation,
	}, nil
}

func (s *Sampler) samplePoseSphere(lens float64) (Pose, error) {
	factor := distuv.Normal{Mu: s.cfg.DistanceFactor.Mean, Sigma: s.cfg.DistanceFactor.Sigma, Src: s.rng}

	// One sphere per pose: retries vary the candidate geometry, not the
	// target, so spheres with poor acceptance rates are not drawn away from.
	sphere := s.spheres[s.sphereNames[s.rng.Intn(len(s.sphereNames))]]
	minDistance := sphere.Radius / math.Tan(s.cfg.FieldOfViewY/2)

	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		distance := minDistance * factor.Rand()

		// With a clearance range the height is resolved separately, so the
		// sweep is purely azimuthal.
		theta := math.Pi / 2
		if s.cfg.Clearance.Range == nil && s.cfg.PolarAngleRange != nil {
			theta = distuv.Uniform{Min: s.cfg.PolarAngleRange[0], Max: s.cfg.PolarAngleRange[1], Src: s.rng}.Rand()
		}
		phi := s.rng.Float64() * 2 * math.Pi

		// Axis convention rotated to match the camera's optical axis.
		location := r3.Add(sphere.Centre, r3.Scale(distance, r3.Vec{
			X: math.Sin(theta) * math.Sin(-phi),
			Y: math.Sin(theta) * math.Cos(phi),
			Z: math.Cos(theta),
		}))

		location, ok, err := s.acceptHeight(location)
		if err != nil {
			return Pose{}, err
		}
		if !ok {
			continue
		}

		rotation := geom.Euler{X: theta, Z: math.Pi + phi}.Add(s.orientationNoise())
		return Pose{Lens: lens, Location: location, Rotation: rotation}, nil
	}
	return Pose{}, fmt.Errorf("%w: no sphere-mode pose after %d attempts", ErrRetryExhausted, s.cfg.MaxAttempts)
}

// acceptHeight applies the configured clearance to a candidate location. A
// range clearance re-draws only the height until it lands in the band; a
// scalar clearance (or none) accepts or rejects the candidate outright.
func (s *Sampler) acceptHeight(location r3.Vec) (r3.Vec, bool, error) {
	if s.terrain == nil {
		return location, true, nil
	}

	if span := s.cfg.Clearance.Range; span != nil {
		draw := distuv.Uniform{Min: span[0], Max: span[1], Src: s.rng}
		for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
			floor, err := s.floorAt(location)
			if err != nil {
				return r3.Vec{}, false, err
			}
			if location.Z >= floor+span[0] && location.Z <= floor+span[1] {
				return location, true, nil
			}
			location.Z = floor + draw.Rand()
		}
		return r3.Vec{}, false, fmt.Errorf("%w: height stuck outside clearance band", ErrRetryExhausted)
	}

	ground, err := s.terrain.GroundLevel(location)
	if err != nil {
		return r3.Vec{}, false, err
	}
	clearance := 0.0
	if s.cfg.Clearance.Scalar != nil {
		clearance = *s.cfg.Clearance.Scalar
	}
	return location, location.Z > ground+clearance, nil
}

func (s *Sampler) floorAt(location r3.Vec) (float64, error) {
	floor, err := s.terrain.GroundLevel(location)
	if err != nil {
		return 0, err
	}
	if s.cfg.AbsoluteFloor != nil && *s.cfg.AbsoluteFloor > floor {
		floor = *s.cfg.AbsoluteFloor
	}
	return floor, nil
}

func (s *Sampler) samplePoseLine(lens float64) (Pose, error) {
	line := s.lines[s.lineNames[s.rng.Intn(len(s.lineNames))]]
	location := line.At(s.rng.Float64())
	if s.cfg.LocationNoise > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: s.cfg.LocationNoise, Src: s.rng}
		location = r3.Add(location, r3.Vec{X: noise.Rand(), Y: noise.Rand(), Z: noise.Rand()})
	}

	polar := distuv.Normal{Mu: 0, Sigma: s.cfg.PolarNoiseSigma, Src: s.rng}
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		theta := math.Pi/2 + polar.Rand()
		phi := s.rng.Float64() * 2 * math.Pi

		direction := r3.Vec{
			X: math.Sin(theta) * math.Cos(phi),
			Y: math.Sin(theta) * math.Sin(phi),
			Z: math.Cos(theta),
		}
		if !s.targetInView(location, direction) {
			continue
		}

		// Adjust for the camera's non-standard forward axis.
		rotation := geom.Euler{X: theta, Z: phi - math.Pi/2}.Add(s.orientationNoise())
		return Pose{Lens: lens, Location: location, Rotation: rotation}, nil
	}
	return Pose{}, fmt.Errorf("%w: no line-mode rotation after %d attempts", ErrRetryExhausted, s.cfg.MaxAttempts)
}

// targetInView reports whether at least one sphere centre lies within half
// the vertical field of view of the direction.
func (s *Sampler) targetInView(location, direction r3.Vec) bool {
	for _, name := range s.sphereNames {
		toCentre := r3.Sub(s.spheres[name].Centre, location)
		norm := r3.Norm(toCentre)
		if norm == 0 {
			return true
		}
		angle := math.Acos(r3.Dot(direction, toCentre) / norm)
		if angle < s.cfg.FieldOfViewY/2 {
			return true
		}
	}
	return false
}

func (s *Sampler) orientationNoise() geom.Euler {
	var out geom.Euler
	if sigma := s.cfg.OrientationNoise[0]; sigma > 0 {
		out.X = distuv.Normal{Mu: 0, Sigma: sigma, Src: s.rng}.Rand()
	}
	if sigma := s.cfg.OrientationNoise[1]; sigma > 0 {
		out.Y = distuv.Normal{Mu: 0, Sigma: sigma, Src: s.rng}.Rand()
	}
	if sigma := s.cfg.OrientationNoise[2]; sigma > 0 {
		out.Z = distuv.Normal{Mu: 0, Sigma: sigma, Src: s.rng}.Rand()
	}
	return out
}
