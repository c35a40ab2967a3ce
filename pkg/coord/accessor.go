package coord

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/wormhole/internal/domain"
	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/store"
)

// Accessor reads, writes and deletes single files under cross-process locks.
// An Accessor is safe for concurrent use.
type Accessor struct {
	timeout     time.Duration
	logger      log.Logger
	fileMode    os.FileMode
	dirMode     os.FileMode
	pollInitial time.Duration
	pollMax     time.Duration
}

// New creates an Accessor with the given options applied over the defaults.
func New(opts ...Option) *Accessor {
	a := defaultAccessor()
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Write stores data at path under an exclusive lock. The target is replaced
// as a whole or not at all; on failure the temporary file is removed and the
// previous contents of path are untouched. Parent directories are created.
func (a *Accessor) Write(ctx context.Context, path string, data []byte, mode WriteMode) error {
	return a.Exclusive(ctx, path, func(tx *Tx) error {
		return tx.Write(data, mode)
	})
}

// Read returns the full contents of path under a shared lock.
// A missing file yields an error wrapping domain.ErrNotFound and leaves no
// lock file behind.
func (a *Accessor) Read(ctx context.Context, path string) ([]byte, error) {
	if missing(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	var data []byte
	err := a.Shared(ctx, path, func(tx *Tx) error {
		var err error
		data, err = tx.Read()
		return err
	})
	return data, err
}

// Delete removes path under an exclusive lock. Deleting a missing file is
// not an error and creates no lock file; the result reports whether a file
// was removed.
func (a *Accessor) Delete(ctx context.Context, path string) (bool, error) {
	if missing(path) {
		return false, nil
	}
	var removed bool
	err := a.ExclusiveExisting(ctx, path, func(tx *Tx) error {
		var err error
		removed, err = tx.Delete()
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return removed, err
}

// Exclusive runs fn while holding the exclusive lock of path. Every step fn
// performs through tx is protected by that one lock, which is what makes a
// read-modify-write cycle safe against other processes. Parent directories of
// path are created.
func (a *Accessor) Exclusive(ctx context.Context, path string, fn func(tx *Tx) error) error {
	if err := os.MkdirAll(filepath.Dir(path), a.dirMode); err != nil {
		return ioErr("mkdir", filepath.Dir(path), err)
	}
	return a.withLock(ctx, path, true, fn)
}

// ExclusiveExisting is Exclusive for cycles that only shrink or remove data:
// when the directory of path does not exist nothing is created, fn is not
// called and the result wraps domain.ErrNotFound.
func (a *Accessor) ExclusiveExisting(ctx context.Context, path string, fn func(tx *Tx) error) error {
	if !parentExists(path) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, filepath.Dir(path))
	}
	return a.withLock(ctx, path, true, fn)
}

// Shared runs fn while holding a shared lock of path. Writes through tx fail.
// If the directory of path does not exist fn is not called and the result
// wraps domain.ErrNotFound.
func (a *Accessor) Shared(ctx context.Context, path string, fn func(tx *Tx) error) error {
	if !parentExists(path) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return a.withLock(ctx, path, false, fn)
}

func (a *Accessor) withLock(ctx context.Context, path string, exclusive bool, fn func(tx *Tx) error) error {
	held, err := a.acquire(ctx, path, exclusive)
	if err != nil {
		return err
	}
	defer a.release(held)

	return fn(&Tx{a: a, path: path, exclusive: exclusive})
}

// acquire opens the lock file of path and polls for the lock until it is
// granted, the timeout elapses or ctx is done.
func (a *Accessor) acquire(ctx context.Context, path string, exclusive bool) (*os.File, error) {
	lockPath := store.LockPathFor(path)
	if err := os.MkdirAll(filepath.Dir(lockPath), a.dirMode); err != nil {
		return nil, ioErr("mkdir", filepath.Dir(lockPath), err)
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, a.fileMode)
	if err != nil {
		return nil, ioErr("open lock", lockPath, err)
	}

	start := time.Now()
	deadline := start.Add(a.timeout)
	b := newBackoff(a.pollInitial, a.pollMax)
	for attempt := 1; ; attempt++ {
		ok, err := tryLock(f, exclusive)
		if err != nil {
			_ = f.Close()
			return nil, ioErr("lock", lockPath, err)
		}
		if ok {
			if attempt > 1 {
				a.logger.Debug("lock acquired after contention",
					log.Path(path),
					log.Int("attempts", attempt),
					log.Duration("waited", time.Since(start)))
			}
			return f, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s after %s", domain.ErrTimeout, path, a.timeout)
		}
		wait := b.Next()
		if wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = f.Close()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (a *Accessor) release(f *os.File) {
	if err := unlock(f); err != nil {
		a.logger.Warn("unlock failed", log.Path(f.Name()), log.Err(err))
	}
	// Closing the descriptor drops the lock even if unlock failed.
	_ = f.Close()
}

// Tx gives unlocked access to the one path whose lock is currently held.
type Tx struct {
	a         *Accessor
	path      string
	exclusive bool
}

// Path returns the coordinated path.
func (tx *Tx) Path() string {
	return tx.path
}

// Read returns the contents of the path or an error wrapping domain.ErrNotFound.
func (tx *Tx) Read() ([]byte, error) {
	data, err := os.ReadFile(tx.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, tx.path)
		}
		return nil, ioErr("read", tx.path, err)
	}
	return data, nil
}

// Write replaces the path with data according to mode.
func (tx *Tx) Write(data []byte, mode WriteMode) error {
	if !tx.exclusive {
		return fmt.Errorf("coord: write to %s under a shared lock", tx.path)
	}
	return tx.a.writeFile(tx.path, data, mode)
}

// Delete removes the path and reports whether it existed.
func (tx *Tx) Delete() (bool, error) {
	if !tx.exclusive {
		return false, fmt.Errorf("coord: delete of %s under a shared lock", tx.path)
	}
	err := os.Remove(tx.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, ioErr("remove", tx.path, err)
}

// writeFile writes data to a temporary sibling and moves it into place.
func (a *Accessor) writeFile(path string, data []byte, mode WriteMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, a.dirMode); err != nil {
		return ioErr("mkdir", dir, err)
	}

	tmp := store.TempPathFor(path)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, a.fileMode)
	if err != nil {
		return ioErr("create temp", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return ioErr("write", tmp, err)
	}
	if mode == OverwriteAtomically {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return ioErr("sync", tmp, err)
		}
	}
	if err := f.Close(); err != nil {
		return ioErr("close", tmp, err)
	}

	switch mode {
	case OverwriteAtomically:
		if err := os.Rename(tmp, path); err != nil {
			return ioErr("rename", path, err)
		}
		a.syncDir(dir)
		return nil
	case FailIfExists:
		return a.placeNew(tmp, path)
	default:
		return fmt.Errorf("%w: unknown write mode %d", domain.ErrInvalidConfig, int(mode))
	}
}

// placeNew moves tmp to path only if path does not exist. A hard link fails
// atomically on an existing target; file systems without hard links fall back
// to a check under the lock the caller already holds.
func (a *Accessor) placeNew(tmp, path string) error {
	linkErr := os.Link(tmp, path)
	if linkErr == nil {
		_ = os.Remove(tmp)
		return nil
	}
	if errors.Is(linkErr, fs.ErrExist) {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, path)
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return ioErr("stat", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return ioErr("rename", path, err)
	}
	return nil
}

// syncDir flushes a rename to disk. Not every platform can sync a directory,
// so failures are only logged.
func (a *Accessor) syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		a.logger.Debug("directory sync failed", log.Path(dir), log.Err(err))
	}
}

// missing reports whether path is known not to exist. Other stat failures
// are left for the locked operation to report.
func missing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

func parentExists(path string) bool {
	info, err := os.Stat(filepath.Dir(path))
	return err == nil && info.IsDir()
}

func ioErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", domain.ErrIO, op, path, err)
}
