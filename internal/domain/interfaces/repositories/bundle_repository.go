// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"coreforge/internal/domain/entities"
)

// BundleRepository defines the interface for accessing service bundles
type BundleRepository interface {
	// GetBundle retrieves a service bundle by name
	GetBundle(ctx context.Context, name string) (*entities.ServiceBundle, error)

	// ListBundles returns all available service bundles
	ListBundles(ctx context.Context) ([]*entities.ServiceBundle, error)

	// GetBundlesByPlatform returns bundles targeting a specific platform
	GetBundlesByPlatform(ctx context.Context, platform string) ([]*entities.ServiceBundle, error)
}
