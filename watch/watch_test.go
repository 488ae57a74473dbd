package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/contractgen/errors"
)

func modelFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("context_map: Map\n"), 0o644))
	return path
}

func counting(calls *atomic.Int32) RegenerateFunc {
	return func(context.Context) error {
		calls.Add(1)
		return nil
	}
}

func runWatcher(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return cancel
}

func TestWatcher_RegeneratesOnWrite(t *testing.T) {
	path := modelFile(t)
	var calls atomic.Int32
	w, err := New([]string{path}, counting(&calls), Options{Debounce: 20 * time.Millisecond, Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	runWatcher(t, w)

	require.NoError(t, os.WriteFile(path, []byte("context_map: Changed\n"), 0o644))

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path := modelFile(t)
	var calls atomic.Int32
	w, err := New([]string{path}, counting(&calls), Options{Debounce: 10 * time.Millisecond, Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	runWatcher(t, w)

	other := filepath.Join(filepath.Dir(path), "Customer.mdsl")
	require.NoError(t, os.WriteFile(other, []byte("API description X\n"), 0o644))

	assert.Never(t, func() bool { return calls.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	var calls atomic.Int32
	w, err := New([]string{modelFile(t)}, counting(&calls), Options{Debounce: 50 * time.Millisecond, Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	defer w.fs.Close()

	ctx := context.Background()
	w.schedule(ctx)
	w.schedule(ctx)
	w.schedule(ctx)

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return calls.Load() > 1 }, 150*time.Millisecond, 10*time.Millisecond)
}

func TestWatcher_RateLimitsRegenerations(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	var calls atomic.Int32
	w, err := New([]string{modelFile(t)}, counting(&calls), Options{
		Debounce:     5 * time.Millisecond,
		MaxPerMinute: 1,
		Logger:       zap.New(core).Sugar(),
	})
	require.NoError(t, err)
	defer w.fs.Close()

	ctx := context.Background()
	w.schedule(ctx)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	w.schedule(ctx)
	require.Eventually(t, func() bool {
		return logs.FilterMessage("regeneration rate limit reached, delaying").Len() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	// closing releases the delayed regeneration without running it
	w.close()
	w.inflight.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	fail := func(context.Context) error {
		return errors.WithHint(errors.New("model is broken"), "fix the model")
	}
	w, err := New([]string{modelFile(t)}, fail, Options{Debounce: 5 * time.Millisecond, Logger: zap.New(core).Sugar()})
	require.NoError(t, err)
	defer w.fs.Close()

	w.schedule(context.Background())
	require.Eventually(t, func() bool {
		return logs.FilterMessage("regeneration failed").Len() == 1
	}, 2*time.Second, 5*time.Millisecond)

	entry := logs.FilterMessage("regeneration failed").All()[0]
	assert.Equal(t, "fix the model", entry.ContextMap()["hint"])
}

func TestWatcher_CancelledContextSkipsRegeneration(t *testing.T) {
	var calls atomic.Int32
	w, err := New([]string{modelFile(t)}, counting(&calls), Options{Debounce: 5 * time.Millisecond, Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	defer w.fs.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.fire(ctx)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, func(context.Context) error { return nil }, Options{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = New([]string{modelFile(t)}, nil, Options{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = New([]string{filepath.Join(t.TempDir(), "missing", "model.yaml")}, func(context.Context) error { return nil }, Options{})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	w, err := New([]string{modelFile(t)}, func(context.Context) error { return nil }, Options{})
	require.NoError(t, err)
	defer w.fs.Close()
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.NotNil(t, w.log)
}
