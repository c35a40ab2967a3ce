package transit

import (
	"fmt"

	"github.com/bft-labs/wormhole/pkg/coord"
	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/manifest"
	"github.com/bft-labs/wormhole/pkg/store"
)

// Version information for the transit module.
const (
	// Version is the current version of the transit module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)

// ModuleVersions returns the version of every module a Transit is built from.
func ModuleVersions() map[string]string {
	return map[string]string{
		"transit":  Version,
		"store":    store.Version,
		"coord":    coord.Version,
		"manifest": manifest.Version,
		"log":      log.Version,
	}
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"store":    {store.Version, store.MinCompatibleVersion},
		"coord":    {coord.Version, coord.MinCompatibleVersion},
		"manifest": {manifest.Version, manifest.MinCompatibleVersion},
		"log":      {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion.
// Versions are in "major.minor.patch" form.
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
