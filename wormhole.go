// Package wormhole passes named messages between processes through a shared
// directory.
//
// Example usage:
//
//	t, err := wormhole.New(wormhole.Config{Root: "/shared/container"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := t.Write(ctx, "inbox", "greeting", []byte("hello")); err != nil {
//	    log.Fatal(err)
//	}
//	payload, err := t.Read(ctx, "inbox", "greeting")
//
// The implementation lives in github.com/bft-labs/wormhole/pkg/transit; this
// package re-exports it for convenient access.
package wormhole

import (
	"github.com/bft-labs/wormhole/pkg/transit"
)

// Transit exchanges messages through a shared root directory.
type Transit = transit.Transit

// Config holds the configuration of a Transit.
type Config = transit.Config

// Option configures optional behavior of a Transit.
type Option = transit.Option

// WriteMode selects how a write treats an existing payload file.
type WriteMode = transit.WriteMode

// EventHandler receives notifications about completed operations.
type EventHandler = transit.EventHandler

// BaseEventHandler provides no-op implementations of all EventHandler methods.
type BaseEventHandler = transit.BaseEventHandler

// RepairReport describes what Repair changed in one channel.
type RepairReport = transit.RepairReport

const (
	// OverwriteAtomically replaces an existing payload transactionally.
	OverwriteAtomically = transit.OverwriteAtomically

	// FailIfExists rejects a write whose payload file is already present.
	FailIfExists = transit.FailIfExists
)

// Errors returned by Transit. Check them with errors.Is.
var (
	ErrInvalidIdentifier = transit.ErrInvalidIdentifier
	ErrNotFound          = transit.ErrNotFound
	ErrCorruptManifest   = transit.ErrCorruptManifest
	ErrIO                = transit.ErrIO
	ErrTimeout           = transit.ErrTimeout
	ErrAlreadyExists     = transit.ErrAlreadyExists
	ErrInvalidConfig     = transit.ErrInvalidConfig
)

// New creates a Transit for cfg.Root.
func New(cfg Config, opts ...Option) (*Transit, error) {
	return transit.New(cfg, opts...)
}

// WithLogger sets a structured logger. See github.com/bft-labs/wormhole/pkg/log.
var WithLogger = transit.WithLogger

// WithEventHandler sets a handler called after writes, deletes and clears.
var WithEventHandler = transit.WithEventHandler

// ParseWriteMode parses "overwrite-atomically" or "fail-if-exists".
func ParseWriteMode(s string) (WriteMode, error) {
	return transit.ParseWriteMode(s)
}
