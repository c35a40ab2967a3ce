// Package log provides a logging abstraction for wormhole components.
//
// This package defines a Logger interface that can be implemented by
// any logging library. A zerolog adapter and a no-op logger are provided.
//
// # Usage
//
// Use the provided zerolog adapter:
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//
// Or wrap an existing zerolog.Logger:
//
//	logger := log.NewZerologAdapterWithLogger(zl)
//
// Components that are given no logger fall back to [NoopLogger].
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
