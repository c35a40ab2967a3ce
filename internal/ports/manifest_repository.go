package ports

import (
	"context"

	"github.com/bft-labs/wormhole/internal/domain"
	"github.com/bft-labs/wormhole/pkg/manifest"
)

// ManifestRepository persists the ordered identifier list of each channel.
// Every mutation must be a single coordinated read-modify-write cycle.
type ManifestRepository interface {
	// List returns the identifiers in insertion order, or an error wrapping
	// domain.ErrCorruptManifest.
	List(ctx context.Context, channel string) ([]string, error)

	// Add appends identifier if absent and reports whether it was added.
	Add(ctx context.Context, channel, identifier string) (bool, error)

	// Remove drops identifier and reports whether it was listed.
	Remove(ctx context.Context, channel, identifier string) (bool, error)

	// Update runs fn on the manifest while holding its exclusive lock.
	Update(ctx context.Context, channel string, fn func(m *domain.Manifest) (bool, error)) ([]string, error)
}

var _ ManifestRepository = (*manifest.Repository)(nil)
