package main

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifestDefaults(t *testing.T) {
	manifest, err := loadManifest("")
	if err != nil {
		t.Fatalf("load default manifest: %v", err)
	}
	if manifest != defaultManifest() {
		t.Fatalf("default manifest mismatch: %+v", manifest)
	}
}

func TestLoadManifestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	contents := "scene: exported.json\nsamples: views.json\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	manifest, err := loadManifest(path)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Scene != "exported.json" {
		t.Fatalf("scene path: got %q", manifest.Scene)
	}
	if manifest.Samples != "views.json" {
		t.Fatalf("samples path: got %q", manifest.Samples)
	}
	// Unset fields keep their defaults.
	if manifest.Config != "render.json" {
		t.Fatalf("config path lost its default: got %q", manifest.Config)
	}
}

func TestLoadManifestJSONEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte("scene: from-file.json\n"), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	t.Setenv("SCENEGEN_MANIFEST_JSON", `{"scene": "from-env.json"}`)

	manifest, err := loadManifest(path)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Scene != "from-env.json" {
		t.Fatalf("environment manifest did not take precedence: got %q", manifest.Scene)
	}
}

func TestLoadManifestYAMLEnv(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("scene: encoded.json\ntrees: forest.json\n"))
	t.Setenv("SCENEGEN_MANIFEST_YAML_B64", encoded)

	manifest, err := loadManifest("")
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Scene != "encoded.json" {
		t.Fatalf("scene path: got %q", manifest.Scene)
	}
	if manifest.Trees != "forest.json" {
		t.Fatalf("trees path: got %q", manifest.Trees)
	}
}

func TestLoadManifestRejectsEmptyScene(t *testing.T) {
	t.Setenv("SCENEGEN_MANIFEST_JSON", `{"scene": ""}`)
	if _, err := loadManifest(""); err == nil {
		t.Fatalf("expected an empty scene path to fail")
	}
}

func TestManifestResolve(t *testing.T) {
	manifest := defaultManifest()
	if got := manifest.resolve("/runs/a", "scene.json"); got != filepath.Join("/runs/a", "scene.json") {
		t.Fatalf("relative path: got %q", got)
	}
	if got := manifest.resolve("/runs/a", "/abs/scene.json"); got != "/abs/scene.json" {
		t.Fatalf("absolute path: got %q", got)
	}
	if got := manifest.resolve("/runs/a", ""); got != "" {
		t.Fatalf("empty path must stay empty, got %q", got)
	}
}
