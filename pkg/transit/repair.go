package transit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bft-labs/wormhole/internal/domain"
	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/store"
)

// StaleTempAge is how old a temporary file must be before Repair treats it as
// left behind by an interrupted write.
const StaleTempAge = time.Hour

// Repair reconciles the manifest of channel with the payload files on disk.
// Payloads missing from the manifest are adopted in modification-time order,
// entries without a payload are dropped, an undecodable manifest is rebuilt
// and abandoned temporary files are removed.
func (t *Transit) Repair(ctx context.Context, channel string) (RepairReport, error) {
	var report RepairReport

	dir, err := t.store.ChannelDir(channel)
	if err != nil {
		return report, err
	}

	_, err = t.manifests.List(ctx, channel)
	switch {
	case errors.Is(err, domain.ErrCorruptManifest):
		report.Recovered = true
	case err != nil:
		return report, err
	}

	onDisk, err := scanPayloads(dir)
	if err != nil {
		return report, err
	}

	_, err = t.manifests.Update(ctx, channel, func(m *domain.Manifest) (bool, error) {
		changed := report.Recovered
		for _, id := range m.List() {
			exists, err := t.payloadExists(channel, id)
			if err != nil {
				return changed, err
			}
			if !exists {
				m.Remove(id)
				report.Dropped = append(report.Dropped, id)
				changed = true
			}
		}
		for _, id := range onDisk {
			if m.Add(id) {
				report.Adopted = append(report.Adopted, id)
				changed = true
			}
		}
		return changed, nil
	})
	if err != nil {
		return report, err
	}

	report.StaleTemps, err = removeStaleTemps(dir, StaleTempAge)
	if err != nil {
		return report, err
	}

	if report.Changed() || report.StaleTemps > 0 {
		t.logger.Info("channel repaired",
			log.Channel(channel),
			log.Strings("adopted", report.Adopted),
			log.Strings("dropped", report.Dropped),
			log.Bool("recovered", report.Recovered),
			log.Int("stale_temps", report.StaleTemps))
	}
	return report, nil
}

// recoverManifest rebuilds a corrupt manifest from the payload files on disk.
func (t *Transit) recoverManifest(_ context.Context, channel string) ([]string, error) {
	dir, err := t.store.ChannelDir(channel)
	if err != nil {
		return nil, err
	}
	return scanPayloads(dir)
}

func (t *Transit) payloadExists(channel, identifier string) (bool, error) {
	path, err := t.store.PathFor(channel, identifier)
	if err != nil {
		return false, nil
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %w", domain.ErrIO, path, err)
}

type payloadFile struct {
	identifier string
	modTime    time.Time
}

// scanPayloads returns the identifiers of the payload files in dir, oldest
// first. A missing directory has none.
func scanPayloads(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read dir %s: %w", domain.ErrIO, dir, err)
	}

	var files []payloadFile
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		id, ok := store.IdentifierFromFile(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Deleted since ReadDir.
			continue
		}
		files = append(files, payloadFile{identifier: id, modTime: info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].identifier < files[j].identifier
	})

	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.identifier
	}
	return ids, nil
}

// removeStaleTemps deletes temporary files in dir older than maxAge and
// returns how many were removed. Younger ones may belong to a write in
// progress and are kept.
func removeStaleTemps(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: read dir %s: %w", domain.ErrIO, dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !store.IsTemp(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("%w: remove %s: %w", domain.ErrIO, path, err)
		}
		removed++
	}
	return removed, nil
}
