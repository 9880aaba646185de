// Package config loads and validates the generation run configuration. The
// file format is JSON; a missing path yields the defaults, and the defaults
// can be written back next to a run for reproducibility.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"scenegen/internal/placement"
	"scenegen/internal/sampler"
	"scenegen/internal/sky"
)

// Sphere algorithm selectors. The corner heuristic is the historical default;
// Ritter's algorithm is the tighter alternative and must be chosen
// explicitly.
const (
	SphereCorner = "corner"
	SphereRitter = "ritter"
)

// Config captures every tunable of a generation run.
type Config struct {
	// Landscape lists object names that are not part of the structure. The
	// first entry anchors the terrain index; all entries are excluded from
	// bounding-volume computation.
	Landscape []string `json:"landscape"`
	// Seed fixes the random source; zero draws a seed from the clock.
	Seed            uint64          `json:"seed"`
	SphereAlgorithm string          `json:"sphere_algorithm"`
	Sun             SunConfig       `json:"sun"`
	Camera          CameraConfig    `json:"camera"`
	Sky             sky.Config      `json:"sky"`
	Placement       PlacementConfig `json:"placement"`
}

// SunConfig bounds the sun's polar angle and carries the lamp parameters the
// renderer applies.
type SunConfig struct {
	ThetaRange [2]float64 `json:"theta"`
	Size       float64    `json:"size"`
	Strength   float64    `json:"strength"`
	Color      [4]float64 `json:"color"`
}

// CameraConfig mirrors the recognised camera sampling options.
type CameraConfig struct {
	DistanceFactor  GaussianOption   `json:"distance_factor"`
	Lens            LogNormalOption  `json:"lens"`
	PolarAngleRange *[2]float64      `json:"theta,omitempty"`
	Clearance       *ClearanceOption `json:"clearance,omitempty"`
	Floor           *float64         `json:"floor,omitempty"`
	Noise           NoiseOption      `json:"noise"`
	FieldOfViewY    float64          `json:"field_of_view_y"`
	PolarNoiseSigma float64          `json:"polar_noise_sigma"`
	LocationNoise   float64          `json:"location_noise"`
	MaxAttempts     int              `json:"max_attempts"`
}

// PlacementConfig tunes the tree grower.
type PlacementConfig struct {
	Scale          float64 `json:"scale"`
	Clearance      float64 `json:"clearance"`
	Dig            float64 `json:"dig"`
	InitialHeight  float64 `json:"initial_height"`
	MaxAttempts    int     `json:"max_attempts"`
	ClearanceIndex bool    `json:"clearance_index"`
}

// GaussianOption is a mean/sigma pair.
type GaussianOption struct {
	Mean  float64 `json:"mean"`
	Sigma float64 `json:"sigma"`
}

// LogNormalOption is a mean/log-sigma pair.
type LogNormalOption struct {
	Mean     float64 `json:"mean"`
	LogSigma float64 `json:"log_sigma"`
}

// Load reads configuration from a JSON file. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Write persists the configuration, creating parent directories as needed.
func (c *Config) Write(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Landscape:       []string{"Landscape"},
		SphereAlgorithm: SphereCorner,
		Sun: SunConfig{
			ThetaRange: [2]float64{0, 17.0 / 18.0 * math.Pi / 2},
			Size:       0.02,
			Strength:   2,
			Color:      [4]float64{1, 1, 251.0 / 255.0, 1},
		},
		Camera: CameraConfig{
			DistanceFactor:  GaussianOption{Mean: 4.0 / 12.0, Sigma: 1.0 / 12.0},
			Lens:            LogNormalOption{Mean: 16, LogSigma: 0.25},
			PolarAngleRange: &[2]float64{math.Pi / 3, 17.0 / 18.0 * math.Pi / 2},
			Noise:           NoiseOption{Sigma: [3]float64{0.01, 0.01, 0.01}},
			FieldOfViewY:    0.6911,
			PolarNoiseSigma: 0.05,
			LocationNoise:   0,
			MaxAttempts:     10_000,
		},
		Placement: PlacementConfig{
			Scale:         8,
			Clearance:     8,
			Dig:           1e-6,
			InitialHeight: 15,
			MaxAttempts:   10_000,
		},
	}
}

// Validate checks invariants that would otherwise surface as confusing
// sampling failures deep inside a run.
func (c *Config) Validate() error {
	if len(c.Landscape) == 0 {
		return errors.New("landscape must name at least one object")
	}
	if c.SphereAlgorithm != SphereCorner && c.SphereAlgorithm != SphereRitter {
		return fmt.Errorf("sphere_algorithm %q must be %q or %q", c.SphereAlgorithm, SphereCorner, SphereRitter)
	}
	if c.Sun.ThetaRange[1] < c.Sun.ThetaRange[0] {
		return errors.New("sun.theta range must be ordered")
	}
	if c.Camera.Lens.Mean <= 0 {
		return errors.New("camera.lens.mean must be positive")
	}
	if c.Camera.FieldOfViewY <= 0 || c.Camera.FieldOfViewY >= math.Pi {
		return errors.New("camera.field_of_view_y must be in (0, pi)")
	}
	if r := c.Camera.PolarAngleRange; r != nil && r[1] < r[0] {
		return errors.New("camera.theta range must be ordered")
	}
	if cl := c.Camera.Clearance; cl != nil && cl.Range != nil && cl.Range[1] < cl.Range[0] {
		return errors.New("camera.clearance range must be ordered")
	}
	if c.Placement.Scale <= 0 {
		return errors.New("placement.scale must be positive")
	}
	if c.Placement.Clearance < 0 {
		return errors.New("placement.clearance cannot be negative")
	}
	if c.Placement.Dig < 0 {
		return errors.New("placement.dig cannot be negative")
	}
	return nil
}

// SamplerConfig converts the camera and sun options into the sampler's
// configuration.
func (c *Config) SamplerConfig() sampler.Config {
	cfg := sampler.Config{
		DistanceFactor:   sampler.GaussianSpec(c.Camera.DistanceFactor),
		PolarAngleRange:  c.Camera.PolarAngleRange,
		AbsoluteFloor:    c.Camera.Floor,
		Lens:             sampler.LogNormalSpec(c.Camera.Lens),
		OrientationNoise: c.Camera.Noise.Sigma,
		FieldOfViewY:     c.Camera.FieldOfViewY,
		SunThetaRange:    c.Sun.ThetaRange,
		PolarNoiseSigma:  c.Camera.PolarNoiseSigma,
		LocationNoise:    c.Camera.LocationNoise,
		MaxAttempts:      c.Camera.MaxAttempts,
	}
	if cl := c.Camera.Clearance; cl != nil {
		cfg.Clearance = sampler.Clearance{Range: cl.Range, Scalar: cl.Scalar}
	}
	return cfg
}

// PlacementOptions converts the placement options into the grower's form.
func (c *Config) PlacementOptions() placement.Options {
	return placement.Options{
		Scale:             c.Placement.Scale,
		Clearance:         c.Placement.Clearance,
		Dig:               c.Placement.Dig,
		InitialHeight:     c.Placement.InitialHeight,
		MaxAttempts:       c.Placement.MaxAttempts,
		UseClearanceIndex: c.Placement.ClearanceIndex,
	}
}
