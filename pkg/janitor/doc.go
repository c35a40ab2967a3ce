// Package janitor periodically repairs the channels of a shared root.
//
// A crashed writer can leave a payload that is stored but not listed, a
// manifest entry whose payload was removed by hand, or a temporary file
// from an interrupted atomic write. A [Janitor] runs Repair over every
// channel (or a fixed set) at a fixed interval so long-lived deployments
// converge without an operator running the repair command.
//
//	j := janitor.New(t, janitor.DefaultConfig(), janitor.WithLogger(logger))
//	if err := j.Start(ctx); err != nil {
//	    return err
//	}
//	defer j.Shutdown(context.Background())
package janitor
