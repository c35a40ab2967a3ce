// Package coord performs file reads and writes that are coordinated across
// operating-system processes sharing a directory.
//
// Every coordinated path has a companion lock file (see store.LockPathFor).
// Writers take an exclusive lock, write a temporary sibling and atomically
// move it into place, so a reader holding a shared lock never observes a
// partially written file. Locks are flock(2) on Unix and LockFileEx on
// Windows; each acquisition opens its own descriptor, which makes the
// exclusion hold between goroutines of one process as well.
//
// # Usage
//
//	a := coord.New(coord.WithTimeout(2 * time.Second))
//	if err := a.Write(ctx, path, data, coord.OverwriteAtomically); err != nil {
//	    return err
//	}
//	data, err := a.Read(ctx, path)
//
// Multi-step cycles hold one lock for their whole duration:
//
//	err := a.Exclusive(ctx, path, func(tx *coord.Tx) error {
//	    old, err := tx.Read()
//	    ...
//	    return tx.Write(updated, coord.OverwriteAtomically)
//	})
//
// Lock acquisition is bounded by the configured timeout and fails with
// domain.ErrTimeout instead of waiting forever on a crashed peer.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package coord
