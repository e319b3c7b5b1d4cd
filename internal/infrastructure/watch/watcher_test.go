package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsSettledFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, 50*time.Millisecond, func(name string) bool {
		return strings.HasSuffix(name, ".txt")
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(path string) {
			mu.Lock()
			seen = append(seen, filepath.Base(path))
			mu.Unlock()
		})
	}()

	target := filepath.Join(dir, "pedido.txt")
	require.NoError(t, os.WriteFile(target, []byte("Papel A4"), 0o644))
	f, err := os.OpenFile(target, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	f.WriteString(" resistente")
	f.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{1}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// Give any stray events time to fire
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"pedido.txt"}, seen, "multiple writes collapse into one report")
	mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_EventDuringFiredCallbackReportsOnce(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "pedido.txt")
	require.NoError(t, os.WriteFile(target, []byte("Papel A4"), 0o644))

	w, err := New(dir, 20*time.Millisecond, nil, nil)
	require.NoError(t, err)
	defer w.stop()

	var (
		mu    sync.Mutex
		calls int
	)
	onFile := func(string) {
		mu.Lock()
		calls++
		mu.Unlock()
	}
	ctx := context.Background()

	w.schedule(ctx, target, onFile)

	// Hold the lock past the deadline so the fired callback is parked on it,
	// then let a late write event arrive.
	w.mu.Lock()
	time.Sleep(60 * time.Millisecond)
	w.scheduleLocked(ctx, target, onFile)
	w.mu.Unlock()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), 0, nil, nil)
	assert.Error(t, err)
}

func TestShouldIgnore(t *testing.T) {
	assert.True(t, shouldIgnore("/a/.DS_Store"))
	assert.True(t, shouldIgnore("/a/notes.txt~"))
	assert.True(t, shouldIgnore("/a/.notes.txt.swp"))
	assert.False(t, shouldIgnore("/a/notes.txt"))
}
