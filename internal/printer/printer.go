// Package printer writes the CLI's human-facing output.
package printer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/bft-labs/wormhole/internal/domain"
)

func init() {
	// Users can disable colors with NO_COLOR
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Printf("✓ %s", msg)
	} else {
		green.Print(msg)
	}
}

// Warning prints a warning message in yellow to stderr
func Warning(format string, a ...any) {
	yellow.Fprintf(os.Stderr, "! %s", fmt.Sprintf(format, a...))
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Item prints one listed identifier with an optional dimmed detail.
func Item(name, detail string) {
	if detail == "" {
		fmt.Println(name)
		return
	}
	fmt.Printf("%s  %s\n", name, faint.Sprint(detail))
}

// Error prints a title, an explanation and suggestions to stderr and returns
// an error carrying only the title for cobra.
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}

// Failure prints err with advice matching its kind and returns the error
// to hand back to cobra.
func Failure(err error) error {
	title, suggestions := Describe(err)
	return Error(title, err.Error(), suggestions)
}

// Describe returns a short title and suggestions for an error returned by
// the transit package.
func Describe(err error) (string, []string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Message not found", []string{"Run 'wormhole list <channel>' to see stored messages"}
	case errors.Is(err, domain.ErrInvalidIdentifier):
		return "Invalid channel or identifier", []string{"Use a non-empty UTF-8 name without NUL bytes"}
	case errors.Is(err, domain.ErrTimeout):
		return "Timed out waiting for a file lock", []string{
			"Retry once the other process finishes",
			"Raise --lock-timeout if writers hold locks for long",
		}
	case errors.Is(err, domain.ErrAlreadyExists):
		return "Message already exists", []string{"Write with --mode overwrite-atomically to replace it"}
	case errors.Is(err, domain.ErrCorruptManifest):
		return "Manifest is corrupt", []string{"Run 'wormhole repair <channel>' to rebuild it from the stored payloads"}
	case errors.Is(err, domain.ErrInvalidConfig):
		return "Invalid configuration", []string{"Check --root, --write-mode and the config file"}
	case errors.Is(err, domain.ErrIO):
		return "File system error", []string{"Check that the shared root exists and is writable"}
	default:
		return "Command failed", nil
	}
}
