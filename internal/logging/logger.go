// Package logging provides categorized zap-backed logging for codepatch.
// Components obtain a named logger per category; the host installs the root
// logger once at startup. Until Configure is called, all loggers are no-ops,
// so the library stays silent when embedded in hosts that do not want logs.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Category identifies the subsystem a log line originates from.
type Category string

const (
	CategoryStore       Category = "store"       // Patch store lifecycle, supersession
	CategoryLocator     Category = "locator"     // Incremental edit location
	CategoryDrift       Category = "drift"       // Snapshot/live reconciliation
	CategoryMaterialize Category = "materialize" // Branch creation and edit application
	CategoryBuffer      Category = "buffer"      // Text buffer operations
	CategoryWorkspace   Category = "workspace"   // Path resolution, file watching
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Configure installs the root logger. Passing nil reverts to a no-op logger.
func Configure(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		root = zap.NewNop()
		return
	}
	root = logger
}

// Get returns the logger for a category, named after it.
func Get(category Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(string(category))
}
