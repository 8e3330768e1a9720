package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
	"github.com/custodia-labs/docstruct/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driving.WorkspaceWatcher = (*Watcher)(nil)

// DefaultWatchDebounce is how long a document directory must be quiet
// before it is processed. The layout parser writes several files per
// document in quick succession.
const DefaultWatchDebounce = 2 * time.Second

// WatchCallback is called after a watched document has been processed.
type WatchCallback func(docID string, results []driving.StageResult, err error)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a document is processed.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatchCallback registers a function called after each run.
func WithWatchCallback(cb WatchCallback) WatcherOption {
	return func(w *Watcher) {
		w.callback = cb
	}
}

// Watcher runs the full pipeline for a document whenever one of its
// layout JSON files is created or rewritten under the workspace root.
type Watcher struct {
	root       string
	structurer driving.Structurer
	debounce   time.Duration
	callback   WatchCallback

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopOnce *sync.Once
	done     chan struct{}
	ready    chan struct{}
	readyOne sync.Once
	due      chan string
	timers   map[string]*time.Timer
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher over the workspace root.
func NewWatcher(root string, structurer driving.Structurer, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:       root,
		structurer: structurer,
		debounce:   DefaultWatchDebounce,
		ready:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once the workspace is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Start watches until ctx is cancelled or Stop is called.
// This method blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.stopOnce = &sync.Once{}
	w.done = make(chan struct{})
	w.due = make(chan string, 64)
	w.timers = make(map[string]*time.Timer)
	stopCh, done := w.stopCh, w.done
	w.mu.Unlock()

	defer func() {
		w.closeStop()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(done)
	}()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.watchTree(fw); err != nil {
		return err
	}
	w.readyOne.Do(func() { close(w.ready) })
	logger.Info("watching %s", w.root)

	defer w.drain()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		case docID := <-w.due:
			w.process(ctx, docID)
		}
	}
}

// Stop ends the watch and waits for in-flight runs.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	done := w.done
	w.mu.Unlock()

	w.closeStop()
	<-done
	return nil
}

func (w *Watcher) closeStop() {
	w.mu.Lock()
	stopCh, once := w.stopCh, w.stopOnce
	w.mu.Unlock()
	once.Do(func() { close(stopCh) })
}

// watchTree adds the root and every existing document directory.
func (w *Watcher) watchTree(fw *fsnotify.Watcher) error {
	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.root, err)
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			if err := fw.Add(filepath.Join(w.root, e.Name())); err != nil {
				return fmt.Errorf("watching %s: %w", e.Name(), err)
			}
		}
	}
	return nil
}

func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, p := range parts {
		if strings.HasPrefix(p, ".") {
			return
		}
	}

	switch len(parts) {
	case 1:
		// A new document directory. Files may already be inside it
		// before the watch is in place.
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if err := fw.Add(event.Name); err != nil {
			logger.Warn("watch: %v", err)
			return
		}
		if hasSourceFiles(event.Name) {
			w.schedule(parts[0])
		}
	case 2:
		if isLayoutFile(parts[1]) {
			w.schedule(parts[0])
		}
	}
}

// schedule (re)starts the document's debounce timer.
func (w *Watcher) schedule(docID string) {
	if t, ok := w.timers[docID]; ok {
		t.Stop()
	}
	due, stopCh := w.due, w.stopCh
	w.timers[docID] = time.AfterFunc(w.debounce, func() {
		select {
		case due <- docID:
		case <-stopCh:
		}
	})
}

func (w *Watcher) process(ctx context.Context, docID string) {
	delete(w.timers, docID)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		// Sources changed, so earlier stages are stale.
		results, err := w.structurer.Run(ctx, docID, true)
		if err != nil {
			logger.WithFields(logger.Fields{"doc_id": docID}).Warnf("watch: %v", err)
		} else {
			logger.Info("watch: %s structured", docID)
		}
		if w.callback != nil {
			w.callback(docID, results, err)
		}
	}()
}

// drain stops pending timers and waits for running documents.
func (w *Watcher) drain() {
	for _, t := range w.timers {
		t.Stop()
	}
	w.closeStop()
	w.wg.Wait()
}

func isLayoutFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

func hasSourceFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && isLayoutFile(e.Name()) && !strings.HasPrefix(e.Name(), ".") {
			return true
		}
	}
	return false
}
