package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with a fresh command tree and returns its stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	for _, k := range []string{"WORMHOLE_ROOT", "WORMHOLE_WRITE_MODE", "WORMHOLE_LOG_LEVEL", "WORMHOLE_LOCK_TIMEOUT", "WORMHOLE_WATCH_DEBOUNCE", "WORMHOLE_WATCH_POLL"} {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "shared")
}

func TestCLI_WriteReadReplay(t *testing.T) {
	root := isolate(t)

	_, err := run(t, "", "--root", root, "write", "inbox", "greeting", "--data", "hello")
	require.NoError(t, err)
	_, err = run(t, "bye", "--root", root, "write", "inbox", "farewell")
	require.NoError(t, err)

	out, err := run(t, "", "--root", root, "read", "inbox", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = run(t, "", "--root", root, "replay", "inbox")
	require.NoError(t, err)
	assert.Equal(t, "greeting\t\"hello\"\nfarewell\t\"bye\"\n", out)

	out, err = run(t, "", "--root", root, "replay", "inbox", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "greeting\thello\nfarewell\tbye\n", out)
}

func TestCLI_ReplayKeepsOneLinePerMessage(t *testing.T) {
	root := isolate(t)

	_, err := run(t, "line one\nline two\n", "--root", root, "write", "inbox", "multi")
	require.NoError(t, err)
	_, err = run(t, "", "--root", root, "write", "inbox", "odd\tid", "--data", "x")
	require.NoError(t, err)
	_, err = run(t, "", "--root", root, "write", "inbox", "plain", "--data", "fake\tline")
	require.NoError(t, err)

	out, err := run(t, "", "--root", root, "replay", "inbox")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "multi\t\"line one\\nline two\\n\"", lines[0])
	assert.Equal(t, "\"odd\\tid\"\t\"x\"", lines[1])
	assert.Equal(t, "plain\t\"fake\\tline\"", lines[2])
}

func TestCLI_FailIfExists(t *testing.T) {
	root := isolate(t)

	_, err := run(t, "", "--root", root, "write", "inbox", "a", "--data", "1")
	require.NoError(t, err)
	_, err = run(t, "", "--root", root, "write", "inbox", "a", "--data", "2", "--mode", "fail-if-exists")
	require.Error(t, err)
	assert.Equal(t, "Message already exists", err.Error())

	out, err := run(t, "", "--root", root, "read", "inbox", "a")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}

func TestCLI_DeleteAndClear(t *testing.T) {
	root := isolate(t)

	for _, id := range []string{"a", "b"} {
		_, err := run(t, "", "--root", root, "write", "inbox", id, "--data", id)
		require.NoError(t, err)
	}

	_, err := run(t, "", "--root", root, "delete", "inbox", "a")
	require.NoError(t, err)
	_, err = run(t, "", "--root", root, "read", "inbox", "a")
	require.Error(t, err)
	assert.Equal(t, "Message not found", err.Error())

	_, err = run(t, "", "--root", root, "clear", "inbox")
	require.NoError(t, err)
	out, err := run(t, "", "--root", root, "replay", "inbox")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCLI_RootFromEnv(t *testing.T) {
	root := isolate(t)
	t.Setenv("WORMHOLE_ROOT", root)

	_, err := run(t, "", "write", "inbox", "a", "--data", "x")
	require.NoError(t, err)
	out, err := run(t, "", "read", "inbox", "a")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestCLI_Errors(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "list", "inbox")
	require.Error(t, err)
	assert.Equal(t, "Invalid configuration", err.Error())

	root := filepath.Join(t.TempDir(), "shared")
	_, err = run(t, "", "--root", root, "--write-mode", "sometimes", "list", "inbox")
	require.Error(t, err)

	_, err = run(t, "", "--root", root, "list", "inbox", "--match", "[")
	require.Error(t, err)
	assert.Equal(t, "Invalid pattern", err.Error())

	_, err = run(t, "", "--root", root, "read", "inbox")
	require.Error(t, err)
}
