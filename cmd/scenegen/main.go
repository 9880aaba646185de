// Command scenegen samples randomised views of a scene snapshot: it builds
// the terrain index and bounding volumes, draws (or reloads) a set of sun and
// camera poses, and persists them for the render stage. Existing sample files
// are authoritative, so a rerun reproduces the previous batch exactly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"scenegen/internal/config"
	"scenegen/internal/geom"
	"scenegen/internal/sampler"
	"scenegen/internal/scene"
	"scenegen/internal/sky"
	"scenegen/internal/store"
	"scenegen/internal/terrain"
)

func main() {
	var (
		manifestPath string
		runDir       string
		size         int
	)
	flag.StringVar(&manifestPath, "manifest", "", "path to run manifest (YAML)")
	flag.StringVar(&runDir, "dir", ".", "run directory for configuration and outputs")
	flag.IntVar(&size, "size", 4, "number of view samples to generate")
	flag.Parse()

	if err := run(manifestPath, runDir, size); err != nil {
		log.Fatalf("scenegen: %v", err)
	}
}

func run(manifestPath, runDir string, size int) error {
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}

	cfg, err := loadOrWriteConfig(manifest.resolve(runDir, manifest.Config))
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))

	world, err := scene.LoadSnapshot(manifest.resolve(runDir, manifest.Scene))
	if err != nil {
		return err
	}

	terr, bounded, err := splitLandscape(world, cfg.Landscape)
	if err != nil {
		return err
	}

	spheres, fromFile, err := store.LoadSpheres(manifest.resolve(runDir, manifest.Spheres), func() (map[string]store.SphereRecord, error) {
		sphere, err := boundingSphere(cfg.SphereAlgorithm, bounded)
		if err != nil {
			return nil, err
		}
		return map[string]store.SphereRecord{"default": store.FromSphere(sphere)}, nil
	})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"count": len(spheres), "from_file": fromFile}).Info("view spheres ready")

	lineRecords, err := store.LoadLines(manifest.resolve(runDir, manifest.Lines))
	if err != nil {
		return err
	}

	sphereTargets := make(map[string]geom.BoundingSphere, len(spheres))
	for name, record := range spheres {
		sphereTargets[name] = record.Sphere()
	}
	lineTargets := make(map[string]geom.LineSegment, len(lineRecords))
	for name, record := range lineRecords {
		lineTargets[name] = record.Line()
	}

	s, err := sampler.New(cfg.SamplerConfig(), sphereTargets, lineTargets, terr, rng)
	if err != nil {
		return err
	}

	samples, fromFile, err := store.LoadSamples(manifest.resolve(runDir, manifest.Samples), func() (map[string]store.SampleRecord, error) {
		out := make(map[string]store.SampleRecord, size)
		for i := 0; i < size; i++ {
			point, err := s.SamplePoint()
			if err != nil {
				return nil, fmt.Errorf("sample %s: %w", store.SequenceKey(i), err)
			}
			out[store.SequenceKey(i)] = store.FromPoint(point)
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"count": len(samples), "from_file": fromFile}).Info("view samples ready")

	applySamples(world, cfg, samples, rng)
	return nil
}

func loadOrWriteConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// A missing configuration file is not an error: write the defaults
		// next to the run so it can be reproduced later.
		cfg := config.Default()
		if err := cfg.Write(path); err != nil {
			return nil, err
		}
		log.WithField("path", path).Info("wrote default configuration")
		return cfg, nil
	}
	return config.Load(path)
}

// splitLandscape builds the terrain index from the first landscape object and
// returns every non-landscape object for bounding-volume computation.
func splitLandscape(world *scene.MemoryScene, landscapeNames []string) (*terrain.Terrain, []geom.Bounded, error) {
	if len(landscapeNames) == 0 {
		return nil, nil, fmt.Errorf("no landscape objects configured")
	}
	anchor := scene.Instances(world, landscapeNames[0])
	if len(anchor) == 0 {
		return nil, nil, fmt.Errorf("landscape object %q not found in scene", landscapeNames[0])
	}
	terr, err := terrain.New(anchor[0])
	if err != nil {
		return nil, nil, err
	}

	excluded := make(map[string]bool, len(landscapeNames))
	for _, name := range landscapeNames {
		excluded[name] = true
	}
	var bounded []geom.Bounded
	for _, obj := range world.Objects() {
		if !excluded[obj.ID().BaseKind] {
			bounded = append(bounded, obj)
		}
	}
	return terr, bounded, nil
}

func boundingSphere(algorithm string, objects []geom.Bounded) (geom.BoundingSphere, error) {
	if algorithm == config.SphereRitter {
		return geom.RitterSphere(objects)
	}
	return geom.CornerSphere(objects, nil)
}

// applySamples pushes each sample onto the scene's camera and sun objects
// when the snapshot contains them, and reports the matching sky state. The
// render stage consumes the same records from disk.
func applySamples(world *scene.MemoryScene, cfg *config.Config, samples map[string]store.SampleRecord, rng *rand.Rand) {
	keys := make([]string, 0, len(samples))
	for key := range samples {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cameras := scene.Instances(world, "Camera")
	suns := scene.Instances(world, "Sun")
	skyGen := sky.NewGenerator(cfg.Sky, rng)

	for _, key := range keys {
		point := samples[key].Point()
		if len(cameras) > 0 {
			cameras[0].SetLocation(point.CameraLocation)
			cameras[0].SetRotation(point.CameraRotation)
		}
		if len(suns) > 0 {
			suns[0].SetRotation(point.SunRotation)
		}
		state := skyGen.Generate(point.SunRotation)
		log.WithFields(log.Fields{
			"sample": key,
			"lens":   point.CameraLens,
			"sun_z":  state.SunDirection.Z,
		}).Info("sample applied")
	}
}
