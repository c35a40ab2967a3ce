package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/bft-labs/wormhole/internal/domain"
)

// decode parses a manifest file. Duplicate or empty entries written by a
// foreign tool are dropped rather than treated as corruption.
func decode(data []byte) (*domain.Manifest, error) {
	var doc domain.Manifest
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptManifest, err)
	}
	m := domain.NewManifest(doc.Identifiers)
	m.UpdatedAt = doc.UpdatedAt
	return m, nil
}

func encode(m *domain.Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
