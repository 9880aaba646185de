// Package sky derives per-sample sky state: the sun direction consistent
// with a sampled sun rotation, plus randomised cloud parameters. The state is
// pure data for the external renderer to apply; nothing here touches a scene.
package sky

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"scenegen/internal/geom"
)

// NoiseSpec parameterises the lognormal cloud-noise scale.
type NoiseSpec struct {
	Mean     float64 `json:"mean"`
	LogSigma float64 `json:"log_sigma"`
}

// RampSpec controls the cloud colour ramp: the dark stop is drawn uniformly
// between Min and Max and the light stop sits Diff above it.
type RampSpec struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Diff float64 `json:"diff"`
}

// Config holds the optional sky randomisation knobs. Nil fields leave the
// corresponding renderer setting untouched.
type Config struct {
	NoiseScale *NoiseSpec  `json:"noise_scale,omitempty"`
	CloudRamp  *RampSpec   `json:"cloud_ramp,omitempty"`
	Translate  *[2]float64 `json:"translate,omitempty"`
}

// State is the resolved sky for one sample.
type State struct {
	SunDirection r3.Vec
	NoiseScale   *float64
	RampStops    *[2]float64
	Translate    *float64
}

// Generator draws sky states from a seeded source.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator creates a generator over the configured knobs.
func NewGenerator(cfg Config, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Generate resolves the sky for the given sun rotation. The sun direction in
// the sky texture uses the rotation's polar and azimuth angles directly.
func (g *Generator) Generate(sun geom.Euler) State {
	theta, phi := sun.X, sun.Z
	state := State{
		SunDirection: r3.Vec{
			X: math.Sin(theta) * math.Sin(phi),
			Y: -math.Sin(theta) * math.Cos(phi),
			Z: math.Cos(theta),
		},
	}

	if spec := g.cfg.NoiseScale; spec != nil {
		scale := distuv.LogNormal{Mu: math.Log(spec.Mean), Sigma: spec.LogSigma, Src: g.rng}.Rand()
		state.NoiseScale = &scale
	}
	if ramp := g.cfg.CloudRamp; ramp != nil {
		dark := distuv.Uniform{Min: ramp.Min, Max: ramp.Max, Src: g.rng}.Rand()
		stops := [2]float64{dark, dark + ramp.Diff}
		state.RampStops = &stops
	}
	if span := g.cfg.Translate; span != nil {
		translate := distuv.Uniform{Min: span[0], Max: span[1], Src: g.rng}.Rand()
		state.Translate = &translate
	}
	return state
}

// DisplaceLandscape returns a random translation for the landscape material
// mapping, used to vary ground texture between runs.
func (g *Generator) DisplaceLandscape() r3.Vec {
	return r3.Vec{
		X: g.rng.Float64() * 1000,
		Y: g.rng.Float64() * 1000,
		Z: g.rng.Float64() * 1000,
	}
}
