package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/bft-labs/wormhole/internal/printer"
	"github.com/bft-labs/wormhole/pkg/janitor"
	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/transit"
	"github.com/bft-labs/wormhole/pkg/watch"
)

func newWriteCommand(a *app) *cobra.Command {
	var (
		data string
		file string
		mode string
	)
	cmd := &cobra.Command{
		Use:   "write <channel> <identifier>",
		Short: "Store a message and list it in the channel",
		Long:  "Store a message read from --data, --file or standard input.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, data, file)
			if err != nil {
				return printer.Error("Cannot read message", err.Error(), nil)
			}

			writeMode := a.transit.Config().WriteMode
			if mode != "" {
				if writeMode, err = transit.ParseWriteMode(mode); err != nil {
					return printer.Failure(err)
				}
			}

			if err := a.transit.WriteWithMode(cmd.Context(), args[0], args[1], payload, writeMode); err != nil {
				return printer.Failure(err)
			}
			printer.Success("wrote %s/%s (%d bytes)\n", args[0], args[1], len(payload))
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "message contents")
	cmd.Flags().StringVar(&file, "file", "", "read message contents from a file")
	cmd.Flags().StringVar(&mode, "mode", "", "write mode for this message (default: --write-mode)")
	cmd.MarkFlagsMutuallyExclusive("data", "file")
	return cmd
}

func readPayload(cmd *cobra.Command, data, file string) ([]byte, error) {
	switch {
	case cmd.Flags().Changed("data"):
		return []byte(data), nil
	case file != "":
		return os.ReadFile(file)
	default:
		return io.ReadAll(cmd.InOrStdin())
	}
}

func newReadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <channel> <identifier>",
		Short: "Print a message's payload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := a.transit.Read(cmd.Context(), args[0], args[1])
			if err != nil {
				return printer.Failure(err)
			}
			_, err = cmd.OutOrStdout().Write(payload)
			return err
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "list <channel>",
		Short: "List a channel's messages in the order they were first written",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var g glob.Glob
			if match != "" {
				var err error
				if g, err = glob.Compile(match); err != nil {
					return printer.Error("Invalid pattern", err.Error(), []string{"Use a glob such as 'order-*'"})
				}
			}

			ids, err := a.transit.List(cmd.Context(), args[0])
			if err != nil {
				return printer.Failure(err)
			}
			for _, id := range ids {
				if g != nil && !g.Match(id) {
					continue
				}
				printer.Item(id, "")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "only list identifiers matching this glob")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <channel> <identifier>",
		Short: "Delete a message and unlist it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.transit.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return printer.Failure(err)
			}
			printer.Success("deleted %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

func newClearCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear [channel]",
		Short: "Delete every listed message of a channel",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := a.transit.ClearAll(cmd.Context()); err != nil {
					return printer.Failure(err)
				}
				printer.Success("cleared all channels under %s\n", a.transit.Root())
				return nil
			}
			removed, err := a.transit.Clear(cmd.Context(), args[0])
			if err != nil {
				return printer.Failure(err)
			}
			printer.Success("cleared %s (%d messages)\n", args[0], len(removed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear every channel under the root")
	return cmd
}

func newChannelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List the channels under the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, err := a.transit.Channels(cmd.Context())
			if err != nil {
				return printer.Failure(err)
			}
			for _, ch := range channels {
				ids, err := a.transit.List(cmd.Context(), ch)
				if err != nil {
					printer.Item(ch, "unreadable")
					continue
				}
				printer.Item(ch, fmt.Sprintf("%d messages", len(ids)))
			}
			return nil
		},
	}
}

func newRepairCommand(a *app) *cobra.Command {
	var (
		all   bool
		every time.Duration
	)
	cmd := &cobra.Command{
		Use:   "repair [channel]",
		Short: "Reconcile a channel's manifest with the files on disk",
		Long: "Reconcile a channel's manifest with the files on disk.\n\n" +
			"With --every the repair repeats at that interval until interrupted.",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if every > 0 {
				return runJanitor(cmd, a, args, every)
			}
			channels := args
			if all {
				var err error
				if channels, err = a.transit.Channels(cmd.Context()); err != nil {
					return printer.Failure(err)
				}
			}
			for _, ch := range channels {
				printer.Step("repairing %s\n", ch)
				report, err := a.transit.Repair(cmd.Context(), ch)
				if err != nil {
					return printer.Failure(err)
				}
				printReport(report)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "repair every channel under the root")
	cmd.Flags().DurationVar(&every, "every", 0, "keep repairing at this interval until interrupted")
	return cmd
}

func runJanitor(cmd *cobra.Command, a *app, channels []string, every time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j := janitor.New(a.transit, janitor.Config{
		Interval:       every,
		Channels:       channels,
		RunImmediately: true,
	}, janitor.WithLogger(log.NewZerologAdapterWithLogger(a.logger)))
	if err := j.Start(ctx); err != nil {
		return printer.Failure(err)
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.LockTimeout)
	defer cancel()
	if err := j.Shutdown(shutdownCtx); err != nil {
		printer.Warning("repair still running at exit: %v\n", err)
	}
	return nil
}

func printReport(r transit.RepairReport) {
	if !r.Changed() && r.StaleTemps == 0 {
		printer.Success("already consistent\n")
		return
	}
	if r.Recovered {
		printer.Warning("manifest was corrupt and has been rebuilt\n")
	}
	if len(r.Adopted) > 0 {
		printer.Item("adopted", strings.Join(r.Adopted, ", "))
	}
	if len(r.Dropped) > 0 {
		printer.Item("dropped", strings.Join(r.Dropped, ", "))
	}
	if r.StaleTemps > 0 {
		printer.Item("stale temporary files removed", fmt.Sprint(r.StaleTemps))
	}
}

// printMessage writes one message per line. Payloads are Go-quoted so that
// newlines and control bytes cannot break the line framing; identifiers are
// quoted only when they would. raw prints both verbatim.
func printMessage(w io.Writer, id string, payload []byte, raw bool) error {
	var err error
	if raw {
		_, err = fmt.Fprintf(w, "%s\t%s\n", id, payload)
	} else {
		_, err = fmt.Fprintf(w, "%s\t%q\n", displayID(id), payload)
	}
	return err
}

func displayID(id string) string {
	q := strconv.Quote(id)
	if q[1:len(q)-1] != id {
		return q
	}
	return id
}

func newReplayCommand(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "replay <channel>",
		Short: "Print every listed message of a channel in order",
		Long: `Print every listed message of a channel in order, one per line as
<identifier> TAB <quoted payload>. Use --raw to print payloads unquoted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			err := a.transit.Replay(cmd.Context(), args[0], func(id string, payload []byte) error {
				return printMessage(out, id, payload, raw)
			})
			if err != nil {
				return printer.Failure(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print identifiers and payloads verbatim")
	return cmd
}

func newWatchCommand(a *app) *cobra.Command {
	var skipExisting, rewrites, raw bool
	cmd := &cobra.Command{
		Use:   "watch <channel>",
		Short: "Print messages as they are written until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := a.cfg.Watch()
			cfg.SkipExisting = skipExisting
			cfg.RedeliverRewrites = rewrites
			follower := watch.New(a.transit, args[0], cfg,
				watch.WithLogger(log.NewZerologAdapterWithLogger(a.logger)))

			out := cmd.OutOrStdout()
			a.logger.Info().Str("channel", args[0]).Str("root", a.transit.Root()).Msg("watching")
			err := follower.Run(ctx, func(_ context.Context, id string, payload []byte) error {
				return printMessage(out, id, payload, raw)
			})
			if err != nil {
				return printer.Failure(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "only print messages written after start")
	cmd.Flags().BoolVar(&raw, "raw", false, "print identifiers and payloads verbatim")
	cmd.Flags().BoolVar(&rewrites, "rewrites", false, "print a message again when its payload is rewritten")
	cmd.Flags().DurationVar(&a.cfg.WatchDebounce, "debounce", a.cfg.WatchDebounce, "wait this long after a change before listing")
	cmd.Flags().DurationVar(&a.cfg.WatchPoll, "poll", a.cfg.WatchPoll, "also list the channel at this interval (0 disables)")
	return cmd
}
