package transit

import "github.com/bft-labs/wormhole/internal/domain"

// Errors returned by Transit. Check them with errors.Is.
var (
	ErrInvalidIdentifier = domain.ErrInvalidIdentifier
	ErrNotFound          = domain.ErrNotFound
	ErrCorruptManifest   = domain.ErrCorruptManifest
	ErrIO                = domain.ErrIO
	ErrTimeout           = domain.ErrTimeout
	ErrAlreadyExists     = domain.ErrAlreadyExists
	ErrInvalidConfig     = domain.ErrInvalidConfig
)

// RepairReport describes what Repair changed in one channel.
type RepairReport = domain.RepairReport
