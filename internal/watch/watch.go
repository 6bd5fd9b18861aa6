// Package watch recompresses markup files as they change on disk.
//
// A Watcher follows a directory tree with fsnotify, waits for writes to a
// file to settle, and hands the file to a batch.Processor. Subdirectories
// created while watching are picked up automatically.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bimmerbailey/htmlmin/internal/batch"
	"github.com/bimmerbailey/htmlmin/internal/config"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is processed.
const DefaultDebounce = 100 * time.Millisecond

// Options configures the watcher behavior.
type Options struct {
	Dir        string        // Root of the watched tree
	Extensions []string      // File extensions to process, e.g. ".html"
	Debounce   time.Duration // Quiet period before processing; zero means DefaultDebounce
	Processor  *batch.Processor
	OnResult   func(batch.Result) // Optional; called after every processed file
	Logger     *zap.Logger
}

// Watcher recompresses files under a directory until its context ends.
type Watcher struct {
	opts    Options
	log     *zap.Logger
	watcher *fsnotify.Watcher

	mu        sync.Mutex
	processor *batch.Processor
	timers    map[string]*time.Timer
	written   map[string]string // last output per path, to ignore our own writes
}

// New creates a Watcher with the given options.
func New(opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		opts:      opts,
		log:       logger.Named("watch"),
		processor: opts.Processor,
		timers:    make(map[string]*time.Timer),
		written:   make(map[string]string),
	}
}

// SetProcessor swaps the processor used for subsequent files, for example
// after the configuration file changed.
func (w *Watcher) SetProcessor(p *batch.Processor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.processor = p
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("failed to open directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", w.opts.Dir)
	}

	if err := w.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	defer w.close()

	w.log.Info("watching", zap.String("dir", w.opts.Dir), zap.Strings("extensions", w.opts.Extensions))
	return w.watch(ctx)
}

// setupWatcher initializes the fsnotify watcher on every directory in the tree.
func (w *Watcher) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher
	return w.addTree(w.opts.Dir)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// watch monitors the tree and processes settled files.
func (w *Watcher) watch(ctx context.Context) error {
	ready := make(chan string, 16)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			w.handleEvent(ctx, event, ready)

		case path := <-ready:
			w.process(ctx, path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// handleEvent processes a file system event.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, ready chan<- string) {
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
		w.schedule(ctx, event.Name, ready)

	case event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name, ready)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(event.Name)
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	if !config.HasExtension(path, w.opts.Extensions) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.opts.Debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
	delete(w.written, path)
}

// process compresses one settled file unless it still holds our last output.
func (w *Watcher) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Debug("skipping vanished file", zap.String("file", path), zap.Error(err))
		return
	}

	w.mu.Lock()
	last, seen := w.written[path]
	p := w.processor
	w.mu.Unlock()

	if seen && last == string(data) {
		return
	}

	results, err := p.Run(ctx, []string{path})
	if len(results) == 0 {
		return
	}
	res := results[0]
	if err != nil {
		w.log.Error("recompression failed", zap.String("file", path), zap.Error(err))
	} else if res.Destination != "" {
		w.mu.Lock()
		w.written[res.Destination] = res.Output
		w.mu.Unlock()
	}

	if w.opts.OnResult != nil {
		w.opts.OnResult(res)
	}
}

// close releases the watcher and pending timers.
func (w *Watcher) close() {
	w.mu.Lock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	if w.watcher != nil {
		w.watcher.Close()
	}
}
