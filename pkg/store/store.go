package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	// PayloadExt is appended to every escaped identifier.
	PayloadExt = ".msg"

	// ManifestName is the manifest file inside each channel directory.
	ManifestName = ".manifest"

	// LocksDir holds one lock file per coordinated path.
	LocksDir = ".locks"

	lockExt = ".lock"
	tmpExt  = ".tmp"
)

// Store derives file paths under a shared root directory.
type Store struct {
	root string
}

// New creates a Store rooted at root. The directory is not created.
func New(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Root returns the shared root directory.
func (s *Store) Root() string {
	return s.root
}

// ChannelDir returns the directory holding every file of channel.
func (s *Store) ChannelDir(channel string) (string, error) {
	esc, err := Escape(channel)
	if err != nil {
		return "", fmt.Errorf("channel: %w", err)
	}
	return filepath.Join(s.root, esc), nil
}

// PathFor returns the payload file for identifier within channel.
// Distinct identifiers always map to distinct paths inside the channel directory.
func (s *Store) PathFor(channel, identifier string) (string, error) {
	dir, err := s.ChannelDir(channel)
	if err != nil {
		return "", err
	}
	esc, err := Escape(identifier)
	if err != nil {
		return "", fmt.Errorf("identifier: %w", err)
	}
	return filepath.Join(dir, esc+PayloadExt), nil
}

// ManifestPathFor returns the manifest file of channel.
func (s *Store) ManifestPathFor(channel string) (string, error) {
	dir, err := s.ChannelDir(channel)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ManifestName), nil
}

// LockPathFor returns the lock file coordinating access to path.
// Locks live beside the data rather than on it because an atomic rename
// replaces the data file's inode and would silently drop a lock held on it.
func LockPathFor(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, LocksDir, strings.TrimPrefix(base, ".")+lockExt)
}

// TempPathFor returns a fresh, unique temporary sibling of path.
func TempPathFor(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+strings.TrimPrefix(base, ".")+"."+uuid.NewString()+tmpExt)
}

// IsTemp reports whether name is a temporary file created by TempPathFor.
func IsTemp(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tmpExt)
}

// IdentifierFromFile returns the identifier stored in the payload file name,
// or false if name is not a payload file.
func IdentifierFromFile(name string) (string, bool) {
	if !strings.HasSuffix(name, PayloadExt) {
		return "", false
	}
	id, err := Unescape(strings.TrimSuffix(name, PayloadExt))
	if err != nil {
		return "", false
	}
	return id, true
}

// Channels lists the channels that have a directory under the root, sorted.
// A missing root yields an empty list.
func (s *Store) Channels() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var channels []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name, err := Unescape(e.Name())
		if err != nil {
			continue
		}
		channels = append(channels, name)
	}
	sort.Strings(channels)
	return channels, nil
}
