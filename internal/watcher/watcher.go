// Package watcher signals when Markdown files under a content tree change,
// so watch mode can re-run the check without polling.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor write bursts into a single signal.
const DefaultDebounce = 300 * time.Millisecond

// Watcher emits one empty struct on Changes per debounced burst of Markdown
// changes anywhere under the watched root. New subdirectories are picked up
// as they appear.
type Watcher struct {
	fsw      *fsnotify.Watcher
	changes  chan struct{}
	done     chan struct{}
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// New watches rootDir and all its current subdirectories.
func New(rootDir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		debounce: DefaultDebounce,
	}

	if err := w.addRecursive(filepath.Clean(rootDir)); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Changes delivers one signal per debounced change burst. The channel is
// never closed while the watcher is open; select against ctx.Done instead.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Watch directories as they are created so new sections count.
			if event.Op.Has(fsnotify.Create) {
				w.maybeAddDir(event.Name)
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
				event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				w.scheduleSignal()
			}

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) maybeAddDir(path string) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return
	}
	w.addRecursive(path)
}

// scheduleSignal (re)arms the debounce timer; when it fires, one signal is
// delivered unless a previous one is still pending.
func (w *Watcher) scheduleSignal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}
