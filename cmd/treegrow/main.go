// Command treegrow populates the terrain with vegetation. In targeted mode
// it applies a placement file to the scene, resolving heights and yaws for
// records that are not yet fixed and rewriting the file so later runs reuse
// them. In scatter mode it grows a requested number of new instances from the
// existing seeds of each kind, with pairwise clearance and obstacle
// avoidance, and records the result in the placement file.
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"scenegen/internal/config"
	"scenegen/internal/placement"
	"scenegen/internal/scene"
	"scenegen/internal/spatial"
	"scenegen/internal/store"
	"scenegen/internal/terrain"
)

func main() {
	var (
		configPath string
		scenePath  string
		treesPath  string
		kinds      string
		count      int
		scatter    bool
	)
	flag.StringVar(&configPath, "config", "", "path to configuration file")
	flag.StringVar(&scenePath, "scene", "scene.json", "path to scene snapshot")
	flag.StringVar(&treesPath, "trees", "trees.json", "path to placement record file")
	flag.StringVar(&kinds, "kinds", "Tree", "comma-separated seed kinds to grow")
	flag.IntVar(&count, "count", 0, "total number of new instances to scatter")
	flag.BoolVar(&scatter, "scatter", false, "scatter new instances instead of applying targets")
	flag.Parse()

	if err := run(configPath, scenePath, treesPath, splitKinds(kinds), count, scatter); err != nil {
		log.Fatalf("treegrow: %v", err)
	}
}

func splitKinds(value string) []string {
	var out []string
	for _, kind := range strings.Split(value, ",") {
		if kind = strings.TrimSpace(kind); kind != "" {
			out = append(out, kind)
		}
	}
	return out
}

func run(configPath, scenePath, treesPath string, kinds []string, count int, scatter bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		return fmt.Errorf("no seed kinds given")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))

	world, err := scene.LoadSnapshot(scenePath)
	if err != nil {
		return err
	}
	anchor := scene.Instances(world, cfg.Landscape[0])
	if len(anchor) == 0 {
		return fmt.Errorf("landscape object %q not found in scene", cfg.Landscape[0])
	}
	terr, err := terrain.New(anchor[0])
	if err != nil {
		return err
	}

	avoidance, err := avoidanceIndex(world, cfg.Landscape, kinds)
	if err != nil {
		return err
	}

	grower, err := placement.New(cfg.PlacementOptions(), terr, avoidance, rng)
	if err != nil {
		return err
	}

	if scatter {
		return scatterRun(grower, world, treesPath, kinds, count, rng)
	}
	return targetedRun(grower, world, treesPath)
}

// targetedRun applies the placement file to the scene and persists any
// records that were fixed during the run.
func targetedRun(grower *placement.Grower, world *scene.MemoryScene, treesPath string) error {
	records, fromFile, err := store.LoadPlacements(treesPath, func() (map[string][]*placement.Record, error) {
		return nil, fmt.Errorf("placement file %s not found; run with -scatter to create one", treesPath)
	})
	if err != nil {
		return err
	}

	groups := scene.NewGroups[*placement.Record]()
	for key, group := range records {
		groups.Append(key, group...)
	}
	if err := grower.GrowAll(world, groups); err != nil {
		return err
	}
	log.WithFields(log.Fields{"groups": len(records), "from_file": fromFile}).Info("targets applied")
	return store.WritePlacements(treesPath, records)
}

// scatterRun grows count new instances split across the seed kinds and
// records the fixed placements.
func scatterRun(grower *placement.Grower, world *scene.MemoryScene, treesPath string, kinds []string, count int, rng *rand.Rand) error {
	records, fromFile, err := store.LoadPlacements(treesPath, func() (map[string][]*placement.Record, error) {
		shares, err := placement.Segment(count, len(kinds), rng)
		if err != nil {
			return nil, err
		}
		out := make(map[string][]*placement.Record, len(kinds))
		for i, kind := range kinds {
			seeds := scene.Instances(world, kind)
			if len(seeds) == 0 {
				return nil, fmt.Errorf("no seed instance of kind %q in scene", kind)
			}
			log.WithFields(log.Fields{"kind": kind, "count": shares[i]}).Info("growing")
			// Re-collected before each kind so earlier kinds' placements
			// count as obstacles for the later ones.
			placed, err := grower.GrowTrees(shares[i], seeds[len(seeds)-1], seedInstances(world, kinds))
			if err != nil {
				return nil, fmt.Errorf("grow %q: %w", kind, err)
			}
			for _, obj := range placed {
				transform := obj.WorldTransform()
				out[kind] = append(out[kind], &placement.Record{
					Location: [3]float64{transform.Location.X, transform.Location.Y, transform.Location.Z},
					Rotation: transform.Rotation.Array(),
					Fixed:    true,
				})
			}
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	if fromFile {
		log.WithField("path", treesPath).Info("placement file already exists; applying it instead")
		groups := scene.NewGroups[*placement.Record]()
		for key, group := range records {
			groups.Append(key, group...)
		}
		return grower.GrowAll(world, groups)
	}
	return nil
}

// seedInstances collects every instance of every seed kind. Scattering one
// kind keeps clear of the others' instances through the pairwise clearing
// set, not the vertex avoidance index.
func seedInstances(world *scene.MemoryScene, kinds []string) []scene.PlaceableObject {
	var out []scene.PlaceableObject
	for _, kind := range kinds {
		out = append(out, scene.Instances(world, kind)...)
	}
	return out
}

// avoidanceIndex collects the world vertices of every object that is neither
// terrain nor one of the seed kinds; scattering keeps clear of them.
func avoidanceIndex(world *scene.MemoryScene, landscape, kinds []string) (*spatial.Index, error) {
	excluded := make(map[string]bool, len(landscape)+len(kinds))
	for _, name := range landscape {
		excluded[name] = true
	}
	for _, kind := range kinds {
		excluded[kind] = true
	}

	var points []r3.Vec
	for _, obj := range world.Objects() {
		if excluded[obj.ID().BaseKind] {
			continue
		}
		points = append(points, obj.WorldVertices()...)
	}
	if len(points) == 0 {
		return nil, nil
	}
	return spatial.Build(points)
}
