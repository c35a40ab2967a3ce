package domain

import "time"

// Manifest is the persisted list of identifiers that currently have a stored
// payload in one channel. Identifiers keep first-insertion order and never repeat.
type Manifest struct {
	// Identifiers in the order they were first added
	Identifiers []string `json:"identifiers"`

	// UpdatedAt is the time of the last successful mutation
	UpdatedAt time.Time `json:"updated_at"`
}

// NewManifest creates a manifest from ids, dropping empty strings and later duplicates.
func NewManifest(ids []string) *Manifest {
	m := &Manifest{Identifiers: make([]string, 0, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		m.Add(id)
	}
	return m
}

// Contains reports whether id is listed.
func (m *Manifest) Contains(id string) bool {
	return m.indexOf(id) >= 0
}

// Add appends id if absent. Returns false when id was already listed,
// in which case the order of existing entries is untouched.
func (m *Manifest) Add(id string) bool {
	if m.Contains(id) {
		return false
	}
	m.Identifiers = append(m.Identifiers, id)
	return true
}

// Remove deletes id if present and reports whether it was listed.
func (m *Manifest) Remove(id string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.Identifiers = append(m.Identifiers[:i], m.Identifiers[i+1:]...)
	return true
}

// Len returns the number of listed identifiers.
func (m *Manifest) Len() int {
	return len(m.Identifiers)
}

// Empty returns true if no identifier is listed.
func (m *Manifest) Empty() bool {
	return len(m.Identifiers) == 0
}

// List returns a copy of the identifiers.
func (m *Manifest) List() []string {
	out := make([]string, len(m.Identifiers))
	copy(out, m.Identifiers)
	return out
}

func (m *Manifest) indexOf(id string) int {
	for i, existing := range m.Identifiers {
		if existing == id {
			return i
		}
	}
	return -1
}

// RepairReport describes what a manifest repair changed.
type RepairReport struct {
	// Adopted lists payload files that were missing from the manifest
	Adopted []string

	// Dropped lists manifest entries whose payload file no longer exists
	Dropped []string

	// Recovered is true if the manifest could not be decoded and was rebuilt
	Recovered bool

	// StaleTemps counts abandoned temporary files that were removed
	StaleTemps int
}

// Changed returns true if the repair modified the manifest.
func (r RepairReport) Changed() bool {
	return r.Recovered || len(r.Adopted) > 0 || len(r.Dropped) > 0
}
