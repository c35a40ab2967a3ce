// Package transit moves named messages between processes through a shared
// directory.
//
// A [Transit] stores each message as one payload file and keeps a manifest
// per channel listing the identifiers that currently have a payload. Both are
// accessed under cross-process file locks, so any number of processes may
// write, read, list and delete concurrently.
//
// # Basic Usage
//
//	t, err := transit.New(transit.Config{Root: "/shared/container"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := t.Write(ctx, "inbox", "greeting", []byte("hello")); err != nil {
//	    log.Fatal(err)
//	}
//
//	// In another process sharing the same root:
//	ids, _ := t.List(ctx, "inbox")
//	for _, id := range ids {
//	    payload, err := t.Read(ctx, "inbox", id)
//	    if errors.Is(err, transit.ErrNotFound) {
//	        continue
//	    }
//	    ...
//	}
//
// # Consistency
//
// Write stores the payload before advertising it in the manifest, and Delete
// removes the payload before forgetting it. A failure between the two steps
// leaves either an unadvertised payload, which a retried Write repairs, or a
// manifest entry whose Read reports [ErrNotFound]. [Transit.Repair] reconciles
// both states in one pass.
//
// A manifest that cannot be decoded is never fatal. List reports it as an
// empty channel and logs a warning; the next mutation rebuilds it from the
// payload files on disk.
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to run code
// after messages are written or removed, for example to signal a peer
// process. Handlers are called synchronously on the calling goroutine after
// all locks are released.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package transit
