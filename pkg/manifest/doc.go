// Package manifest keeps the per-channel list of identifiers that have a
// stored payload.
//
// The list is a small JSON file read and written only through a coord.Accessor.
// Add, Remove and Update run their whole read-modify-write cycle under the manifest's
// exclusive lock, so concurrent updates from different processes are never lost.
//
// # Usage
//
//	m := manifest.NewRepository(accessor, st)
//
//	if _, err := m.Add(ctx, "inbox", "greeting"); err != nil {
//	    return err
//	}
//	ids, err := m.List(ctx, "inbox")
//
// # Corruption
//
// List reports an undecodable file as domain.ErrCorruptManifest and leaves
// the decision to the caller. Add and Remove must not be blocked by a bad
// file: they rebuild the list through the function given to [WithRecover]
// (or start from an empty list) and log a warning.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package manifest
