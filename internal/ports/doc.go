// Package ports defines the interfaces that connect the transiting facade to
// its storage components.
//
// The facade in pkg/transit depends only on these interfaces. The concrete
// implementations are coord.Accessor for payload files and
// manifest.Repository for manifests; tests substitute failing or
// instrumented versions to exercise partial-failure paths.
//
// # Port Interfaces
//
//   - [PayloadAccessor]: coordinated payload file reads, writes and deletes
//   - [ManifestRepository]: per-channel identifier list persistence
package ports
