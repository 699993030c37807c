package yaml

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"coreforge/internal/domain/entities"
)

// Builtin bundles for the stock payload services ship inside the binary so
// the tool works on a device with no bundle directory at all.
//
//go:embed bundles/*.yml
var builtinBundles embed.FS

// BundleRepository implements repositories.BundleRepository using YAML files.
// Bundles read from the configured directory shadow builtin bundles of the
// same name.
type BundleRepository struct {
	bundlesDir string
	parser     *BundleParser
}

// NewBundleRepository creates a new YAML-based bundle repository
func NewBundleRepository(bundlesDir string) *BundleRepository {
	return &BundleRepository{
		bundlesDir: bundlesDir,
		parser:     NewBundleParser(),
	}
}

// GetBundle retrieves a service bundle by name
func (r *BundleRepository) GetBundle(_ context.Context, name string) (*entities.ServiceBundle, error) {
	if r.bundlesDir != "" {
		filePath := filepath.Join(r.bundlesDir, name+".yml")
		if _, err := os.Stat(filePath); err == nil {
			return r.parser.ParseFile(filePath)
		}
	}

	data, err := builtinBundles.ReadFile("bundles/" + name + ".yml")
	if err != nil {
		return nil, fmt.Errorf("bundle not found: %s", name)
	}
	return r.parser.Parse(data)
}

// ListBundles returns all available service bundles, builtin and on-disk,
// sorted by name
func (r *BundleRepository) ListBundles(_ context.Context) ([]*entities.ServiceBundle, error) {
	byName := make(map[string]*entities.ServiceBundle)

	entries, err := builtinBundles.ReadDir("bundles")
	if err != nil {
		return nil, fmt.Errorf("failed to read builtin bundles: %w", err)
	}
	for _, entry := range entries {
		data, err := builtinBundles.ReadFile("bundles/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read builtin bundle %s: %w", entry.Name(), err)
		}
		bundle, err := r.parser.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("builtin bundle %s is invalid: %w", entry.Name(), err)
		}
		byName[bundle.Name] = bundle
	}

	if r.bundlesDir != "" {
		if err := r.mergeDirBundles(byName); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	bundles := make([]*entities.ServiceBundle, 0, len(names))
	for _, name := range names {
		bundles = append(bundles, byName[name])
	}
	return bundles, nil
}

// GetBundlesByPlatform returns bundles targeting a specific platform
func (r *BundleRepository) GetBundlesByPlatform(ctx context.Context, platform string) ([]*entities.ServiceBundle, error) {
	all, err := r.ListBundles(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entities.ServiceBundle, 0)
	for _, b := range all {
		if b.Base.Platform == platform {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

func (r *BundleRepository) mergeDirBundles(byName map[string]*entities.ServiceBundle) error {
	entries, err := os.ReadDir(r.bundlesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // builtins only
		}
		return fmt.Errorf("failed to read bundles directory: %w", err)
	}

	for _, entry := range entries {
		// Skip non-YAML files
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		filePath := filepath.Join(r.bundlesDir, entry.Name())
		bundle, err := r.parser.ParseFile(filePath)
		if err != nil {
			// Log warning but continue processing other files
			fmt.Fprintf(os.Stderr, "Warning: failed to parse %s: %v\n", entry.Name(), err)
			continue
		}

		byName[bundle.Name] = bundle
	}
	return nil
}
