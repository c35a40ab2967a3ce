// Package domain contains the core entities and error kinds for wormhole.
//
// This package is the innermost layer. It has no dependencies on file
// system access, locking or logging and contains only the rules that keep a
// channel's manifest consistent.
//
// # Entities
//
//   - [Manifest]: the ordered, duplicate-free identifier list of one channel
//   - [RepairReport]: the outcome of reconciling a manifest with payload files
//
// # Errors
//
// Every failure returned by the public API wraps one of the sentinel errors in
// errors.go and can be checked with errors.Is.
package domain
