package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/wormhole/internal/cliconfig"
	"github.com/bft-labs/wormhole/internal/printer"
	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/transit"
)

const helpDescription = `
Pass named messages between processes through a shared directory.

Every message is one file under <root>/<channel>/. A manifest per channel
lists the stored identifiers in the order they were first written, so a
process that starts late can replay everything it missed. All access goes
through cross-process file locks.

Configuration is read from $HOME/.wormhole/config.toml, then WORMHOLE_*
environment variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  echo hello | wormhole --root /shared write inbox greeting
  wormhole --root /shared list inbox
  wormhole --root /shared read inbox greeting
  wormhole --root /shared watch inbox
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries state shared by every subcommand once the configuration is loaded.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  zerolog.Logger
	transit *transit.Transit
}

// setup loads file, env and flag configuration in that order and builds the
// Transit used by the subcommand.
func (a *app) setup(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return printer.Error("Invalid config file", err.Error(), []string{"Fix or remove " + cfgFile})
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return printer.Error("Invalid config file", err.Error(), nil)
		}
	}

	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return printer.Error("Invalid environment", err.Error(), nil)
	}

	if err := a.cfg.Validate(); err != nil {
		return printer.Error("Invalid configuration", err.Error(), []string{
			"Pass --root or set WORMHOLE_ROOT",
			"Set root in " + cliconfig.DefaultConfigPath(),
		})
	}

	logger, err := cliconfig.Logger(a.cfg.LogLevel)
	if err != nil {
		return printer.Error("Invalid configuration", err.Error(), nil)
	}
	a.logger = logger
	a.logger.Debug().Interface("config", a.cfg).Interface("modules", transit.ModuleVersions()).Msg("configuration")

	libCfg, err := a.cfg.Transit()
	if err != nil {
		return printer.Failure(err)
	}
	t, err := transit.New(libCfg, transit.WithLogger(log.NewZerologAdapterWithLogger(a.logger)))
	if err != nil {
		return printer.Failure(err)
	}
	a.transit = t
	return nil
}

func newRootCommand() *cobra.Command {
	a := &app{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "wormhole",
		Short:         "Pass named messages between processes through a shared directory",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return printer.Error("Invalid arguments", err.Error(), []string{"Run '" + cmd.CommandPath() + " --help' for usage"})
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.wormhole/config.toml)")
	flags.StringVar(&a.cfg.Root, "root", a.cfg.Root, "shared root directory")
	flags.DurationVar(&a.cfg.LockTimeout, "lock-timeout", a.cfg.LockTimeout, "how long to wait for a file lock")
	flags.StringVar(&a.cfg.WriteMode, "write-mode", a.cfg.WriteMode, "overwrite-atomically or fail-if-exists")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		newWriteCommand(a),
		newReadCommand(a),
		newListCommand(a),
		newDeleteCommand(a),
		newClearCommand(a),
		newChannelsCommand(a),
		newRepairCommand(a),
		newReplayCommand(a),
		newWatchCommand(a),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
