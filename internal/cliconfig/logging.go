package cliconfig

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/wormhole/pkg/log"
)

// Logger returns the CLI's console logger writing to stderr at level.
func Logger(level string) (zerolog.Logger, error) {
	return newLogger(os.Stderr, level)
}

func newLogger(out io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().
		Logger(), nil
}
