package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(file, []byte("tables: {}\n"), 0o644))

	var runs atomic.Int32
	w, err := New(file, func(context.Context) error {
		runs.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	// A burst of writes triggers a single run.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(file, []byte("tables: {users: {}}\n"), 0o644))
	}
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	// Other files in the directory are ignored.
	before := runs.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_FirstRunError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	boom := errors.New("boom")
	w, err := New(file, func(context.Context) error { return boom })
	require.NoError(t, err)
	assert.ErrorIs(t, w.Run(context.Background()), boom)
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "schema.yaml"), func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestWithLogger_Nil(t *testing.T) {
	file := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	var runs atomic.Int32
	w, err := New(file, func(context.Context) error {
		if runs.Add(1) > 1 {
			return errors.New("invalid schema")
		}
		return nil
	}, WithLogger(nil), WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	require.NotNil(t, w.log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	// A failing rerun is logged and watching goes on.
	require.NoError(t, os.WriteFile(file, []byte("tables: {}\n"), 0o644))
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
