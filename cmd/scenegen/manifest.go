package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest names every file taking part in a generation run. Paths are
// resolved relative to the run directory.
type Manifest struct {
	Config  string `json:"config" yaml:"config"`
	Scene   string `json:"scene" yaml:"scene"`
	Spheres string `json:"spheres" yaml:"spheres"`
	Lines   string `json:"lines" yaml:"lines"`
	Samples string `json:"samples" yaml:"samples"`
	Trees   string `json:"trees" yaml:"trees"`
}

func defaultManifest() Manifest {
	return Manifest{
		Config:  "render.json",
		Scene:   "scene.json",
		Spheres: "spheres.json",
		Lines:   "lines.json",
		Samples: "samples.json",
		Trees:   "trees.json",
	}
}

// loadManifest reads the manifest from path, or falls back to defaults when
// no path is given. A batch scheduler may instead inject the manifest
// through the environment, which takes precedence.
func loadManifest(path string) (Manifest, error) {
	if injected, ok, err := manifestFromEnv(); err != nil {
		return Manifest{}, err
	} else if ok {
		return injected, nil
	}

	manifest := defaultManifest()
	if path == "" {
		return manifest, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Scene == "" {
		return Manifest{}, errors.New("manifest: scene path must be set")
	}
	return manifest, nil
}

func manifestFromEnv() (Manifest, bool, error) {
	jsonPayload := os.Getenv("SCENEGEN_MANIFEST_JSON")
	yamlPayload := os.Getenv("SCENEGEN_MANIFEST_YAML_B64")
	if jsonPayload == "" && yamlPayload == "" {
		return Manifest{}, false, nil
	}

	manifest := defaultManifest()
	if jsonPayload != "" {
		if err := json.Unmarshal([]byte(jsonPayload), &manifest); err != nil {
			return Manifest{}, false, fmt.Errorf("decode manifest json: %w", err)
		}
	} else {
		data, err := base64.StdEncoding.DecodeString(yamlPayload)
		if err != nil {
			return Manifest{}, false, fmt.Errorf("decode manifest yaml: %w", err)
		}
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return Manifest{}, false, fmt.Errorf("parse manifest yaml: %w", err)
		}
	}
	if manifest.Scene == "" {
		return Manifest{}, false, errors.New("manifest: scene path must be set")
	}
	return manifest, true, nil
}

// resolve joins a manifest path with the run directory unless it is already
// absolute.
func (m Manifest) resolve(runDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(runDir, path)
}
