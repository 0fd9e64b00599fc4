package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"codepatch/internal/logging"
)

// Watcher keeps a Manager's cached buffers in sync with the files on disk.
// Writes from outside the process show up as whole-content reloads on the
// live buffer; drift adjustment downstream reconciles any patch that was
// located against the older content.
type Watcher struct {
	mu          sync.Mutex
	manager     *Manager
	watcher     *fsnotify.Watcher
	watchedDirs map[string]bool
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	log         *zap.Logger

	stats WatcherStats
}

// WatcherStats tracks watcher activity for debugging.
type WatcherStats struct {
	Reloads       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// NewWatcher creates a watcher over the manager's roots.
func NewWatcher(manager *Manager) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		manager:     manager,
		watcher:     fsw,
		watchedDirs: make(map[string]bool),
		debounceMap: make(map[string]time.Time),
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		log:         logging.Get(logging.CategoryWorkspace),
	}, nil
}

// Start begins watching the manager's root directories. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, root := range w.manager.roots {
		if err := w.watcher.Add(root); err != nil {
			w.log.Warn("cannot watch root", zap.String("root", root), zap.Error(err))
			continue
		}
		w.mu.Lock()
		w.watchedDirs[root] = true
		w.mu.Unlock()
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("error closing fsnotify watcher", zap.Error(err))
	}
}

// Stats returns a copy of the watcher's counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("fsnotify error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if _, ok := w.manager.Buffer(event.Name); !ok {
		return
	}
	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebounced reloads files whose last event has settled. Rapid save
// bursts from editors collapse into one reload.
func (w *Watcher) processDebounced() {
	now := time.Now()
	var ready []string
	w.mu.Lock()
	for path, last := range w.debounceMap {
		if now.Sub(last) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	w.stats.Reloads += len(ready)
	w.mu.Unlock()

	for _, path := range ready {
		w.manager.Reload(path)
	}
}
