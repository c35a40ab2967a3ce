// Package watch follows a channel and hands every newly listed message to a
// callback.
//
// A [Follower] watches the channel directory with fsnotify. When the manifest
// is replaced it waits for the burst of events to settle, lists the channel
// again and reads each identifier it has not delivered yet. It replays the
// channel locally; it does not signal other processes. Rewriting a listed
// identifier leaves the manifest unchanged, so such rewrites are only
// delivered when Config.RedeliverRewrites is set.
//
//	f := watch.New(t, "inbox", watch.DefaultConfig())
//	err := f.Run(ctx, func(ctx context.Context, id string, payload []byte) error {
//	    fmt.Printf("%s: %s\n", id, payload)
//	    return nil
//	})
package watch
