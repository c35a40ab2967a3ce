package transit

// EventHandler receives notifications about completed operations.
// Embed BaseEventHandler to implement only the events you need.
type EventHandler interface {
	// OnWrite is called after a payload is stored and listed in the manifest.
	OnWrite(event WriteEvent)

	// OnDelete is called after a message is deleted.
	OnDelete(event DeleteEvent)

	// OnClear is called after a channel is cleared.
	OnClear(event ClearEvent)

	// OnCorruptManifest is called when List finds an undecodable manifest.
	OnCorruptManifest(event CorruptManifestEvent)
}

// WriteEvent describes a successful write.
type WriteEvent struct {
	Channel    string
	Identifier string
	Bytes      int

	// Listed is true if the identifier was new to the manifest.
	Listed bool
}

// DeleteEvent describes a successful delete.
type DeleteEvent struct {
	Channel    string
	Identifier string

	// PayloadRemoved is false if only a dangling manifest entry was removed.
	PayloadRemoved bool
}

// ClearEvent describes a cleared channel.
type ClearEvent struct {
	Channel string

	// Removed lists the identifiers whose payloads were deleted.
	Removed []string
}

// CorruptManifestEvent describes a manifest that could not be decoded.
type CorruptManifestEvent struct {
	Channel string
	Err     error
}

// BaseEventHandler provides no-op implementations of all EventHandler methods.
type BaseEventHandler struct{}

func (BaseEventHandler) OnWrite(WriteEvent)                     {}
func (BaseEventHandler) OnDelete(DeleteEvent)                   {}
func (BaseEventHandler) OnClear(ClearEvent)                     {}
func (BaseEventHandler) OnCorruptManifest(CorruptManifestEvent) {}
