package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsDuringSteadyWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoints: []\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(context.Context) error {
			reloads <- struct{}{}
			return nil
		})
	}()

	// Writes arrive faster than the debounce window and never pause, so a
	// reload has to happen while they continue. This also covers the watcher
	// registering after the first writes.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(ReloadDebounce / 5)
	defer tick.Stop()
	for observed := false; !observed; {
		select {
		case <-reloads:
			observed = true
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("endpoints: []\n"), 0o600))
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_IgnoresOtherFilesAndKeepsGoingOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 16)
	go func() {
		_ = Watch(ctx, path, nil, func(context.Context) error {
			calls <- struct{}{}
			return errors.New("broken file")
		})
	}()

	// Writes to a sibling never trigger a reload.
	other := filepath.Join(dir, "other.yaml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(other, []byte("y"), 0o600))
		time.Sleep(50 * time.Millisecond)
	}
	select {
	case <-calls:
		t.Fatal("reload triggered by an unrelated file")
	case <-time.After(2 * ReloadDebounce):
	}

	// A failing reload does not stop the watcher: two separate saves give two calls.
	deadline := time.After(10 * time.Second)
	for got := 0; got < 2; {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		select {
		case <-calls:
			got++
		case <-time.After(time.Second):
		case <-deadline:
			t.Fatalf("expected two reload attempts, got %d", got)
		}
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "endpoints.yaml"), nil, func(context.Context) error { return nil })
	assert.Error(t, err)
}
