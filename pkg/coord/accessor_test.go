package coord

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/wormhole/internal/domain"
)

func TestAccessor_WriteRead(t *testing.T) {
	dir := t.TempDir()
	a := New()
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("hello wormhole")},
		{"empty", []byte{}},
		{"binary", []byte{0x00, 0xff, 0x10, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "chan", tt.name+".msg")
			require.NoError(t, a.Write(ctx, path, tt.data, OverwriteAtomically))

			got, err := a.Read(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, len(tt.data), len(got))
			assert.Equal(t, string(tt.data), string(got))
		})
	}
}

func TestAccessor_WriteReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan", "a.msg")
	a := New()
	ctx := context.Background()

	require.NoError(t, a.Write(ctx, path, []byte("first version, longer"), OverwriteAtomically))
	require.NoError(t, a.Write(ctx, path, []byte("second"), OverwriteAtomically))

	got, err := a.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestAccessor_ReadNotFound(t *testing.T) {
	dir := t.TempDir()
	a := New()
	ctx := context.Background()

	t.Run("missing directory", func(t *testing.T) {
		_, err := a.Read(ctx, filepath.Join(dir, "nope", "a.msg"))
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, statErr := os.Stat(filepath.Join(dir, "nope"))
		assert.True(t, os.IsNotExist(statErr), "read must not create the channel directory")
	})

	t.Run("missing file", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "chan"), 0o755))
		_, err := a.Read(ctx, filepath.Join(dir, "chan", "a.msg"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NotErrorIs(t, err, domain.ErrIO)
	})
}

func TestAccessor_DeleteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan", "a.msg")
	a := New()
	ctx := context.Background()

	removed, err := a.Delete(ctx, path)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, a.Write(ctx, path, []byte("x"), OverwriteAtomically))

	removed, err = a.Delete(ctx, path)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = a.Delete(ctx, path)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = a.Read(ctx, path)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccessor_MissingFileLeavesNoLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chan")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	a := New()
	ctx := context.Background()

	for _, name := range []string{"never-written", "x", "y"} {
		path := filepath.Join(dir, name+".msg")

		_, err := a.Read(ctx, path)
		require.ErrorIs(t, err, domain.ErrNotFound)

		removed, err := a.Delete(ctx, path)
		require.NoError(t, err)
		assert.False(t, removed)
	}

	_, err := os.Stat(filepath.Join(dir, ".locks"))
	assert.True(t, os.IsNotExist(err), "lookups of missing files must not create lock files")

	path := filepath.Join(dir, "written.msg")
	require.NoError(t, a.Write(ctx, path, []byte("x"), OverwriteAtomically))
	entries, err := os.ReadDir(filepath.Join(dir, ".locks"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "written.msg.lock", entries[0].Name())
}

func TestAccessor_FailIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan", "a.msg")
	a := New()
	ctx := context.Background()

	require.NoError(t, a.Write(ctx, path, []byte("original"), FailIfExists))

	err := a.Write(ctx, path, []byte("intruder"), FailIfExists)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := a.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestAccessor_FailedWriteLeavesTargetUntouched(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chan")
	path := filepath.Join(dir, "a.msg")
	a := New()
	ctx := context.Background()

	// A directory in place of the target makes the final rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o755))

	err := a.Write(ctx, path, []byte("payload"), OverwriteAtomically)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)

	info, statErr := os.Stat(filepath.Join(path, "keep"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
	assertNoTempFiles(t, dir)
}

func TestAccessor_FileAndDirModes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	dir := filepath.Join(t.TempDir(), "chan")
	path := filepath.Join(dir, "a.msg")
	a := New(WithFileMode(0o600), WithDirMode(0o700))

	require.NoError(t, a.Write(context.Background(), path, []byte("x"), OverwriteAtomically))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	info, err = os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestAccessor_TimeoutWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan", "a.msg")
	holder := New()
	waiter := New(WithTimeout(50*time.Millisecond), WithPollInterval(time.Millisecond, 5*time.Millisecond))
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- holder.Exclusive(ctx, path, func(tx *Tx) error {
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	start := time.Now()
	err := waiter.Write(ctx, path, []byte("late"), OverwriteAtomically)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	_, err = waiter.Read(ctx, path)
	assert.ErrorIs(t, err, domain.ErrTimeout, "a shared lock must wait for the exclusive holder")

	close(release)
	require.NoError(t, <-done)

	require.NoError(t, waiter.Write(ctx, path, []byte("now"), OverwriteAtomically))
}

func TestAccessor_ContextCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan", "a.msg")
	a := New(WithTimeout(time.Minute))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- a.Exclusive(context.Background(), path, func(tx *Tx) error {
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := a.Write(ctx, path, []byte("x"), OverwriteAtomically)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
}

func TestAccessor_SharedLocksCoexist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan", "a.msg")
	a := New(WithTimeout(200 * time.Millisecond))
	ctx := context.Background()
	require.NoError(t, a.Write(ctx, path, []byte("x"), OverwriteAtomically))

	err := a.Shared(ctx, path, func(outer *Tx) error {
		_, err := a.Read(ctx, path)
		return err
	})
	assert.NoError(t, err)
}

func TestAccessor_SharedTxRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan", "a.msg")
	a := New()
	ctx := context.Background()
	require.NoError(t, a.Write(ctx, path, []byte("x"), OverwriteAtomically))

	err := a.Shared(ctx, path, func(tx *Tx) error {
		return tx.Write([]byte("y"), OverwriteAtomically)
	})
	assert.Error(t, err)
}

func TestAccessor_ExclusiveSerializesGoroutines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chan", "counter")
	a := New(WithTimeout(10 * time.Second))
	ctx := context.Background()

	const workers, rounds = 4, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if err := increment(ctx, a, path); err != nil {
					t.Errorf("increment: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*rounds, readCounter(t, a, path))
}

// TestAccessor_ExclusiveSerializesProcesses runs the same read-modify-write
// loop from separate OS processes.
func TestAccessor_ExclusiveSerializesProcesses(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns subprocesses")
	}
	path := filepath.Join(t.TempDir(), "chan", "counter")
	const procs, rounds = 3, 20

	var cmds []*exec.Cmd
	for i := 0; i < procs; i++ {
		cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$")
		cmd.Env = append(os.Environ(),
			"WORMHOLE_COORD_HELPER=1",
			"WORMHOLE_COORD_PATH="+path,
			"WORMHOLE_COORD_ROUNDS="+strconv.Itoa(rounds),
		)
		require.NoError(t, cmd.Start())
		cmds = append(cmds, cmd)
	}
	for _, cmd := range cmds {
		require.NoError(t, cmd.Wait())
	}

	assert.Equal(t, procs*rounds, readCounter(t, New(), path))
}

// TestHelperProcess is the body of each subprocess started above.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("WORMHOLE_COORD_HELPER") != "1" {
		return
	}
	rounds, _ := strconv.Atoi(os.Getenv("WORMHOLE_COORD_ROUNDS"))
	a := New(WithTimeout(30 * time.Second))
	for i := 0; i < rounds; i++ {
		if err := increment(context.Background(), a, os.Getenv("WORMHOLE_COORD_PATH")); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(2)
		}
	}
	os.Exit(0)
}

func increment(ctx context.Context, a *Accessor, path string) error {
	return a.Exclusive(ctx, path, func(tx *Tx) error {
		n := 0
		data, err := tx.Read()
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		default:
			if n, err = strconv.Atoi(string(data)); err != nil {
				return err
			}
		}
		time.Sleep(time.Millisecond)
		return tx.Write([]byte(strconv.Itoa(n+1)), OverwriteAtomically)
	})
}

func readCounter(t *testing.T, a *Accessor, path string) int {
	t.Helper()
	data, err := a.Read(context.Background(), path)
	require.NoError(t, err)
	n, err := strconv.Atoi(string(data))
	require.NoError(t, err)
	return n
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}
