// Package watch re-runs an analysis callback when issue records change.
// Every run still analyzes a frozen snapshot; watching only decides when the
// next one-shot pipeline fires.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mhoffs/sprintdeps/internal/logging"
)

// debounceWindow absorbs editor save bursts: many editors emit several
// events for a single write.
const debounceWindow = 250 * time.Millisecond

// Watcher triggers a callback on debounced record changes under one root.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	onBatch func()
	log     *logging.Logger
	stopCh  chan struct{}
}

// New creates a watcher over the corpus root. onBatch runs once per
// debounced change burst, on the watch goroutine.
func New(root string, onBatch func(), log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.NopLogger()
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a readable directory", root)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    root,
		watcher: fw,
		onBatch: onBatch,
		log:     log.WithPhase("watch"),
		stopCh:  make(chan struct{}),
	}
	if err := w.watchDirRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// watchDirRecursive registers every directory under root: fsnotify only
// watches directories, not trees.
func (w *Watcher) watchDirRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Run processes events until Stop is called. It blocks; callers own the
// goroutine placement.
func (w *Watcher) Run() {
	debounce := time.NewTimer(0)
	<-debounce.C // drain the initial fire

	pending := 0
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			pending++
			debounce.Reset(debounceWindow)

		case <-debounce.C:
			if pending == 0 {
				continue
			}
			w.log.Debug("records changed, re-running", "events", pending)
			pending = 0
			w.onBatch()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.watcher.Close()
}

// relevant filters events down to record mutations: markdown writes,
// creations, renames, and removals. New directories get registered so
// records created inside them are seen.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
			return false
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	return strings.HasSuffix(base, ".md")
}
