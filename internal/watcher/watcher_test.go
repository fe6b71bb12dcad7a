package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForSignal(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Changes():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherSignalsOnMarkdownWrite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "blog"), 0755))

	w, err := New(root)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "blog", "post.md"), []byte("# hi\n"), 0644))

	assert.True(t, waitForSignal(t, w, 3*time.Second), "expected a change signal")
}

func TestWatcherIgnoresNonMarkdown(t *testing.T) {
	root := t.TempDir()

	w, err := New(root)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "style.css"), []byte("body{}\n"), 0644))

	assert.False(t, waitForSignal(t, w, 700*time.Millisecond), "css write should not signal")
}

func TestWatcherCoalescesBursts(t *testing.T) {
	root := t.TempDir()

	w, err := New(root)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "post.md"), []byte("draft\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, waitForSignal(t, w, 3*time.Second), "expected one coalesced signal")
	assert.False(t, waitForSignal(t, w, 700*time.Millisecond), "burst should coalesce to a single signal")
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
