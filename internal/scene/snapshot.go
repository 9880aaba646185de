package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"scenegen/internal/geom"
)

// Snapshot is the on-disk form of a scene exported by the host tool: every
// object with its pose and local-space vertices.
type Snapshot struct {
	Objects []SnapshotObject `json:"objects"`
}

// SnapshotObject is one exported object. Name follows the host convention
// ("Tree", "Tree.001", ...) and is parsed into a typed ObjectID on load.
type SnapshotObject struct {
	Name     string       `json:"name"`
	Location [3]float64   `json:"location"`
	Rotation [3]float64   `json:"rotation"`
	Vertices [][3]float64 `json:"vertices"`
}

// LoadSnapshot reads a scene snapshot file and builds an in-memory scene.
func LoadSnapshot(path string) (*MemoryScene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse scene snapshot: %w", err)
	}
	if len(snap.Objects) == 0 {
		return nil, fmt.Errorf("scene snapshot %s contains no objects", path)
	}

	s := NewMemoryScene()
	for i, src := range snap.Objects {
		if src.Name == "" {
			return nil, fmt.Errorf("scene snapshot object %d has no name", i)
		}
		if len(src.Vertices) == 0 {
			return nil, fmt.Errorf("scene snapshot object %q has no vertices", src.Name)
		}
		vertices := make([]r3.Vec, len(src.Vertices))
		for j, v := range src.Vertices {
			vertices[j] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
		}
		transform := geom.Transform{
			Location: r3.Vec{X: src.Location[0], Y: src.Location[1], Z: src.Location[2]},
			Rotation: geom.EulerFromArray(src.Rotation),
		}
		s.Attach(NewMemoryObject(ParseObjectName(src.Name), transform, vertices))
	}
	return s, nil
}
