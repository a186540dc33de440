package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/dictamen/internal/cli"
)

func TestWatcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "datos.yaml")
	other := filepath.Join(dir, "otro.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num: 1\n"), 0o600))

	w, err := cli.NewWatcher([]string{path}, 10*time.Millisecond)
	require.NoError(t, err)

	defer w.Close()

	ctx, cancel := context.WithCancel(t.Context())

	var calls atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls.Add(1)

			return nil
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Files in the same directory that are not watched are ignored.
	require.NoError(t, os.WriteFile(other, []byte("num: 2\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, os.WriteFile(path, []byte("num: 2\n"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewWatcherMissingDir(t *testing.T) {
	t.Parallel()

	_, err := cli.NewWatcher([]string{"/non/existent/datos.yaml"}, time.Millisecond)
	require.ErrorContains(t, err, "add path to watcher")
}
