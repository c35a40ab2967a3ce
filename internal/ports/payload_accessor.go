package ports

import (
	"context"

	"github.com/bft-labs/wormhole/pkg/coord"
)

// PayloadAccessor stores message payloads at file paths with cross-process
// coordination.
type PayloadAccessor interface {
	// Write replaces the file at path with data. A failed write leaves the
	// previous file untouched.
	Write(ctx context.Context, path string, data []byte, mode coord.WriteMode) error

	// Read returns the whole file. A missing file wraps domain.ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete removes the file if present and reports whether it existed.
	Delete(ctx context.Context, path string) (bool, error)
}

var _ PayloadAccessor = (*coord.Accessor)(nil)
