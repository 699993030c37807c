package yaml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBundleRepository_GetBundle_Builtin(t *testing.T) {
	repo := NewBundleRepository("")
	ctx := context.Background()

	bundle, err := repo.GetBundle(ctx, "web-cam-image")
	if err != nil {
		t.Fatalf("GetBundle() error = %v", err)
	}

	if bundle.Name != "web-cam-image" {
		t.Errorf("Name = %v, want web-cam-image", bundle.Name)
	}
	if bundle.Entrypoint.Script != "web_cam_image_service.py" {
		t.Errorf("Entrypoint.Script = %v", bundle.Entrypoint.Script)
	}
}

func TestBundleRepository_GetBundle_NotFound(t *testing.T) {
	repo := NewBundleRepository("")

	_, err := repo.GetBundle(context.Background(), "no-such-bundle")
	if err == nil {
		t.Error("GetBundle() should return error for unknown bundle")
	}
}

func TestBundleRepository_GetBundle_DirShadowsBuiltin(t *testing.T) {
	bundlesDir := t.TempDir()
	override := `name: web-cam-image
description: Overridden definition
base:
  ref: arm64v8/python:3.11-slim
entrypoint:
  script: web_cam_image_service.py
image:
  repository: web_cam_image_service
`
	path := filepath.Join(bundlesDir, "web-cam-image.yml")
	if err := os.WriteFile(path, []byte(override), 0600); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}

	repo := NewBundleRepository(bundlesDir)
	bundle, err := repo.GetBundle(context.Background(), "web-cam-image")
	if err != nil {
		t.Fatalf("GetBundle() error = %v", err)
	}

	if bundle.Base.Ref != "arm64v8/python:3.11-slim" {
		t.Errorf("Base.Ref = %v, want the on-disk override", bundle.Base.Ref)
	}
}

func TestBundleRepository_ListBundles(t *testing.T) {
	repo := NewBundleRepository("")

	bundles, err := repo.ListBundles(context.Background())
	if err != nil {
		t.Fatalf("ListBundles() error = %v", err)
	}

	if len(bundles) < 7 {
		t.Errorf("ListBundles() count = %d, want at least 7 builtins", len(bundles))
	}

	// Sorted by name
	for i := 1; i < len(bundles); i++ {
		if bundles[i-1].Name >= bundles[i].Name {
			t.Errorf("ListBundles() not sorted: %q before %q", bundles[i-1].Name, bundles[i].Name)
		}
	}

	want := map[string]bool{
		"network-compute-bridge":       false,
		"spot-cam-video":               false,
		"metrics-over-coreio":          false,
		"ricoh-theta-image":            false,
		"retinanet-fire-detector":      false,
		"web-cam-image":                false,
		"area-callback-look-both-ways": false,
	}
	for _, b := range bundles {
		if _, ok := want[b.Name]; ok {
			want[b.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("ListBundles() missing builtin bundle %q", name)
		}
	}
}

func TestBundleRepository_ListBundles_MergesDir(t *testing.T) {
	bundlesDir := t.TempDir()
	extra := `name: lidar-scan
base:
  ref: arm64v8/python:3.10-slim
entrypoint:
  script: lidar_scan_service.py
image:
  repository: lidar_scan_service
`
	if err := os.WriteFile(filepath.Join(bundlesDir, "lidar-scan.yml"), []byte(extra), 0600); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
	// Broken files are skipped with a warning
	if err := os.WriteFile(filepath.Join(bundlesDir, "broken.yml"), []byte("name: [oops"), 0600); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
	// Non-YAML files are ignored
	if err := os.WriteFile(filepath.Join(bundlesDir, "README.md"), []byte("# notes"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	repo := NewBundleRepository(bundlesDir)
	bundles, err := repo.ListBundles(context.Background())
	if err != nil {
		t.Fatalf("ListBundles() error = %v", err)
	}

	found := false
	for _, b := range bundles {
		if b.Name == "lidar-scan" {
			found = true
		}
	}
	if !found {
		t.Error("ListBundles() should include on-disk bundle lidar-scan")
	}
}

func TestBundleRepository_ListBundles_MissingDir(t *testing.T) {
	repo := NewBundleRepository("/nonexistent/bundles")

	bundles, err := repo.ListBundles(context.Background())
	if err != nil {
		t.Fatalf("ListBundles() error = %v", err)
	}
	if len(bundles) < 7 {
		t.Errorf("ListBundles() should fall back to builtins, got %d", len(bundles))
	}
}

func TestBundleRepository_GetBundlesByPlatform(t *testing.T) {
	repo := NewBundleRepository("")
	ctx := context.Background()

	arm64, err := repo.GetBundlesByPlatform(ctx, "linux/arm64")
	if err != nil {
		t.Fatalf("GetBundlesByPlatform() error = %v", err)
	}
	if len(arm64) < 7 {
		t.Errorf("GetBundlesByPlatform(linux/arm64) count = %d, want all builtins", len(arm64))
	}

	amd64, err := repo.GetBundlesByPlatform(ctx, "linux/amd64")
	if err != nil {
		t.Fatalf("GetBundlesByPlatform() error = %v", err)
	}
	if len(amd64) != 0 {
		t.Errorf("GetBundlesByPlatform(linux/amd64) count = %d, want 0", len(amd64))
	}
}
