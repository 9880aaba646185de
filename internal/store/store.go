// Package store persists the sampler and placement outputs: sample points,
// bounding spheres, camera lines and placement records. Every file is
// read-if-present / write-if-absent: existing non-empty contents are
// authoritative, which makes reruns reproducible and resumable; otherwise
// freshly generated values are written before use.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"scenegen/internal/geom"
	"scenegen/internal/placement"
	"scenegen/internal/sampler"
)

// ErrIncompatibleGroup is returned when a named group is written under a name
// that already exists and overwrite was not requested.
var ErrIncompatibleGroup = errors.New("store: named group already exists")

// SampleRecord is one persisted view sample, keyed in its file by a
// zero-padded three-digit sequence id.
type SampleRecord struct {
	SunRotation    [3]float64 `json:"sun_rotation"`
	CameraLens     float64    `json:"camera_lens"`
	CameraLocation [3]float64 `json:"camera_location"`
	CameraRotation [3]float64 `json:"camera_rotation"`
}

// SphereRecord is a persisted camera view target.
type SphereRecord struct {
	Centre [3]float64 `json:"centre"`
	Radius float64    `json:"radius"`
}

// LineRecord is a persisted camera location line.
type LineRecord struct {
	Start [3]float64 `json:"start"`
	End   [3]float64 `json:"end"`
}

// SequenceKey formats a sample index as its file key.
func SequenceKey(i int) string {
	return fmt.Sprintf("%03d", i)
}

// FromPoint converts a sampled point into its persisted form.
func FromPoint(p sampler.Point) SampleRecord {
	return SampleRecord{
		SunRotation:    p.SunRotation.Array(),
		CameraLens:     p.CameraLens,
		CameraLocation: [3]float64{p.CameraLocation.X, p.CameraLocation.Y, p.CameraLocation.Z},
		CameraRotation: p.CameraRotation.Array(),
	}
}

// Point converts a persisted record back into a sampled point.
func (r SampleRecord) Point() sampler.Point {
	return sampler.Point{
		SunRotation:    geom.EulerFromArray(r.SunRotation),
		CameraLens:     r.CameraLens,
		CameraLocation: r3.Vec{X: r.CameraLocation[0], Y: r.CameraLocation[1], Z: r.CameraLocation[2]},
		CameraRotation: geom.EulerFromArray(r.CameraRotation),
	}
}

// FromSphere converts a bounding sphere into its persisted form.
func FromSphere(s geom.BoundingSphere) SphereRecord {
	return SphereRecord{
		Centre: [3]float64{s.Centre.X, s.Centre.Y, s.Centre.Z},
		Radius: s.Radius,
	}
}

// Sphere converts a persisted record back into a bounding sphere.
func (r SphereRecord) Sphere() geom.BoundingSphere {
	return geom.BoundingSphere{
		Centre: r3.Vec{X: r.Centre[0], Y: r.Centre[1], Z: r.Centre[2]},
		Radius: r.Radius,
	}
}

// FromLine converts a line segment into its persisted form.
func FromLine(l geom.LineSegment) LineRecord {
	return LineRecord{
		Start: [3]float64{l.Start.X, l.Start.Y, l.Start.Z},
		End:   [3]float64{l.End.X, l.End.Y, l.End.Z},
	}
}

// Line converts a persisted record back into a line segment.
func (r LineRecord) Line() geom.LineSegment {
	return geom.LineSegment{
		Start: r3.Vec{X: r.Start[0], Y: r.Start[1], Z: r.Start[2]},
		End:   r3.Vec{X: r.End[0], Y: r.End[1], Z: r.End[2]},
	}
}

// LoadSamples reads a sample file, generating and writing it first when the
// file is absent or empty. The boolean reports whether an existing file was
// used.
func LoadSamples(path string, generate func() (map[string]SampleRecord, error)) (map[string]SampleRecord, bool, error) {
	return loadOrCreate(path, generate)
}

// LoadSpheres reads a sphere file, generating and writing it when absent.
func LoadSpheres(path string, generate func() (map[string]SphereRecord, error)) (map[string]SphereRecord, bool, error) {
	return loadOrCreate(path, generate)
}

// LoadLines reads a line file if one exists. A missing or empty file yields
// an empty set: lines are only ever authored by hand.
func LoadLines(path string) (map[string]LineRecord, error) {
	records := map[string]LineRecord{}
	ok, err := readIfPresent(path, &records)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]LineRecord{}, nil
	}
	return records, nil
}

// LoadPlacements reads a placement file, generating and writing it when
// absent.
func LoadPlacements(path string, generate func() (map[string][]*placement.Record, error)) (map[string][]*placement.Record, bool, error) {
	return loadOrCreate(path, generate)
}

// WritePlacements rewrites a placement file after records were fixed.
func WritePlacements(path string, records map[string][]*placement.Record) error {
	return write(path, records)
}

// AddSphere inserts a named sphere into an existing sphere file. Reusing a
// name requires overwrite.
func AddSphere(path, name string, record SphereRecord, overwrite bool) error {
	records := map[string]SphereRecord{}
	if _, err := readIfPresent(path, &records); err != nil {
		return err
	}
	if _, exists := records[name]; exists && !overwrite {
		return fmt.Errorf("%w: sphere %q in %s", ErrIncompatibleGroup, name, path)
	}
	records[name] = record
	return write(path, records)
}

// AddLine inserts a named line into an existing line file. Reusing a name
// requires overwrite.
func AddLine(path, name string, record LineRecord, overwrite bool) error {
	records := map[string]LineRecord{}
	if _, err := readIfPresent(path, &records); err != nil {
		return err
	}
	if _, exists := records[name]; exists && !overwrite {
		return fmt.Errorf("%w: line %q in %s", ErrIncompatibleGroup, name, path)
	}
	records[name] = record
	return write(path, records)
}

func loadOrCreate[T any](path string, generate func() (T, error)) (T, bool, error) {
	var existing T
	ok, err := readIfPresent(path, &existing)
	if err != nil {
		return existing, false, err
	}
	if ok {
		return existing, true, nil
	}

	generated, err := generate()
	if err != nil {
		return existing, false, err
	}
	if err := write(path, generated); err != nil {
		return existing, false, err
	}
	return generated, false, nil
}

func readIfPresent(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func write(path string, records any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create record directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
