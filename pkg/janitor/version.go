package janitor

// Version information for the janitor module.
const (
	// Version is the current version of the janitor module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)
