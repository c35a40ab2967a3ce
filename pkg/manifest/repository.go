package manifest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/wormhole/internal/domain"
	"github.com/bft-labs/wormhole/pkg/coord"
	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/store"
)

// Repository persists one manifest file per channel.
type Repository struct {
	accessor  *coord.Accessor
	store     *store.Store
	logger    log.Logger
	recover   RecoverFunc
	afterRead func()
}

// NewRepository creates a Repository that stores manifests under st's root
// and performs all file access through accessor.
func NewRepository(accessor *coord.Accessor, st *store.Store, opts ...Option) *Repository {
	r := &Repository{
		accessor: accessor,
		store:    st,
		logger:   log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the manifest file of channel.
func (r *Repository) Path(channel string) (string, error) {
	return r.store.ManifestPathFor(channel)
}

// List returns the identifiers of channel in insertion order.
// A channel without a manifest file has no identifiers. An undecodable file
// yields an error wrapping domain.ErrCorruptManifest.
func (r *Repository) List(ctx context.Context, channel string) ([]string, error) {
	path, err := r.Path(channel)
	if err != nil {
		return nil, err
	}

	data, err := r.accessor.Read(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m.List(), nil
}

// Add appends identifier to the channel's manifest unless it is already
// listed. It reports whether the manifest changed.
func (r *Repository) Add(ctx context.Context, channel, identifier string) (bool, error) {
	return r.update(ctx, channel, true, func(m *domain.Manifest) (bool, error) {
		return m.Add(identifier), nil
	})
}

// Remove drops identifier from the channel's manifest and reports whether it
// was listed.
func (r *Repository) Remove(ctx context.Context, channel, identifier string) (bool, error) {
	return r.update(ctx, channel, false, func(m *domain.Manifest) (bool, error) {
		return m.Remove(identifier), nil
	})
}

// Update runs fn on the decoded manifest inside one exclusive cycle and
// writes the result back if fn reports a change, even when fn also returns an
// error. Other work fn does while the cycle runs is serialized with every
// other manifest mutation of the channel. Update returns the identifiers as
// they stand when the lock is released; a channel without a directory is
// left alone and yields an empty list.
func (r *Repository) Update(ctx context.Context, channel string, fn func(m *domain.Manifest) (bool, error)) ([]string, error) {
	ids := []string{}
	_, err := r.update(ctx, channel, false, func(m *domain.Manifest) (bool, error) {
		changed, err := fn(m)
		ids = m.List()
		return changed, err
	})
	return ids, err
}

// update is the read-modify-write cycle shared by every mutation. The
// manifest's exclusive lock is held from the read until the write completes.
// When create is false and the channel directory does not exist, fn is not
// called and nothing is created.
func (r *Repository) update(ctx context.Context, channel string, create bool, fn func(m *domain.Manifest) (bool, error)) (bool, error) {
	path, err := r.Path(channel)
	if err != nil {
		return false, err
	}

	var changed bool
	cycle := func(tx *coord.Tx) error {
		m, recovered, err := r.load(ctx, tx, channel)
		if err != nil {
			return err
		}
		if r.afterRead != nil {
			r.afterRead()
		}

		var fnErr error
		changed, fnErr = fn(m)
		if !changed && !recovered {
			return fnErr
		}
		m.UpdatedAt = time.Now().UTC()
		data, err := encode(m)
		if err != nil {
			return errors.Join(fnErr, fmt.Errorf("encode manifest: %w", err))
		}
		return errors.Join(fnErr, tx.Write(data, coord.OverwriteAtomically))
	}

	if create {
		err = r.accessor.Exclusive(ctx, path, cycle)
	} else {
		err = r.accessor.ExclusiveExisting(ctx, path, cycle)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
	}
	if err != nil {
		return false, err
	}
	return changed, nil
}

// load reads the manifest inside a held cycle. A missing file is an empty
// manifest; a corrupt one is rebuilt and reported as recovered so the cycle
// always writes a clean file back.
func (r *Repository) load(ctx context.Context, tx *coord.Tx, channel string) (*domain.Manifest, bool, error) {
	data, err := tx.Read()
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewManifest(nil), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	m, decodeErr := decode(data)
	if decodeErr == nil {
		return m, false, nil
	}

	var ids []string
	if r.recover != nil {
		ids, err = r.recover(ctx, channel)
		if err != nil {
			return nil, false, fmt.Errorf("recover manifest of %q: %w", channel, err)
		}
	}
	r.logger.Warn("manifest corrupt, rebuilt",
		log.Channel(channel),
		log.Path(tx.Path()),
		log.Int("identifiers", len(ids)),
		log.Err(decodeErr))
	return domain.NewManifest(ids), true, nil
}
