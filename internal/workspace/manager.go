// Package workspace maps path strings onto live text buffers. A Manager owns
// one or more root directories; relative paths resolve against the first root
// that already contains the file, and paths that match no root fall back to
// the first root so new files can still be created. Each file has at most one
// live buffer, shared by every caller.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"codepatch/internal/logging"
	"codepatch/internal/textbuf"
)

// Manager resolves paths and caches live buffers.
type Manager struct {
	mu      sync.Mutex
	roots   []string
	buffers map[string]*textbuf.Buffer // keyed by absolute path
	log     *zap.Logger
}

// NewManager creates a manager over the given root directories. At least one
// root is required; roots are made absolute.
func NewManager(roots ...string) (*Manager, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("workspace: at least one root directory required")
	}
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("workspace: resolving root %q: %w", r, err)
		}
		abs = append(abs, a)
	}
	return &Manager{
		roots:   abs,
		buffers: make(map[string]*textbuf.Buffer),
		log:     logging.Get(logging.CategoryWorkspace),
	}, nil
}

// OpenBuffer returns the live buffer for a path, loading the file on first
// use. Paths for files that do not exist yet resolve into the first root and
// open as empty buffers. Paths escaping every root are rejected.
func (m *Manager) OpenBuffer(ctx context.Context, path string) (*textbuf.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := m.resolve(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if buf, ok := m.buffers[abs]; ok {
		return buf, nil
	}

	content := ""
	data, err := os.ReadFile(abs)
	switch {
	case err == nil:
		content = string(data)
	case os.IsNotExist(err):
		m.log.Debug("opening new buffer for missing file", zap.String("path", abs))
	default:
		return nil, fmt.Errorf("workspace: reading %s: %w", abs, err)
	}

	buf := textbuf.NewBuffer(abs, content)
	m.buffers[abs] = buf
	return buf, nil
}

// resolve maps a path string to an absolute location inside one of the
// roots. Existing files win over the creation fallback.
func (m *Manager) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("workspace: empty path")
	}
	if filepath.IsAbs(path) {
		for _, root := range m.roots {
			if within(root, path) {
				return filepath.Clean(path), nil
			}
		}
		return "", fmt.Errorf("workspace: path %q is outside every root", path)
	}

	var fallback string
	for _, root := range m.roots {
		candidate := filepath.Join(root, path)
		if !within(root, candidate) {
			continue
		}
		if fallback == "" {
			fallback = candidate
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("workspace: path %q escapes every root", path)
	}
	return fallback, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Buffer returns the cached buffer for an absolute path, if any.
func (m *Manager) Buffer(abs string) (*textbuf.Buffer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.buffers[abs]
	return buf, ok
}

// Paths returns the absolute paths of all cached buffers, sorted.
func (m *Manager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.buffers))
	for p := range m.buffers {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reload re-reads a cached buffer's file from disk and replaces the buffer
// content if it changed. Unknown or unreadable paths are ignored.
func (m *Manager) Reload(abs string) {
	m.mu.Lock()
	buf, ok := m.buffers[abs]
	m.mu.Unlock()
	if !ok {
		return
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		m.log.Warn("reload failed", zap.String("path", abs), zap.Error(err))
		return
	}
	buf.Replace(string(data))
	m.log.Debug("buffer reloaded from disk", zap.String("path", abs))
}
