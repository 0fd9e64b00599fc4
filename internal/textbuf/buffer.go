// Package textbuf implements the in-memory text buffers that codepatch
// edits. A buffer holds immutable snapshots of its content, records every
// replacement it applies, and resolves anchors across those replacements so
// positions stay valid while the text underneath them moves. Buffers can be
// branched: a branch is an isolated copy that can be edited freely without
// affecting its base.
package textbuf

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codepatch/internal/logging"
)

// EditID identifies one applied replacement.
type EditID = uuid.UUID

// ReindentMode controls how replacement text is indented on application.
type ReindentMode int

const (
	// ReindentNone inserts replacement text verbatim.
	ReindentNone ReindentMode = iota
	// ReindentBlock shifts every line of the replacement so its first
	// non-empty line matches the indentation of the first replaced line.
	ReindentBlock
)

// EditSpan pairs an anchor range with its replacement text.
type EditSpan struct {
	Range AnchorRange
	Text  string
}

// Buffer is a mutexed text buffer. All mutation goes through its own lock;
// readers take immutable snapshots.
type Buffer struct {
	mu       sync.Mutex
	id       uuid.UUID
	basePath string
	content  string
	version  uint64
	history  []editRecord
}

// Snapshot is an immutable capture of a buffer's content at a version. It
// carries the history prefix up to that version so it can resolve anchors
// on its own.
type Snapshot struct {
	content    string
	version    uint64
	history    []editRecord
	lineStarts []int
}

// NewBuffer creates a buffer with the given path and initial content.
func NewBuffer(path, content string) *Buffer {
	return &Buffer{
		id:       uuid.New(),
		basePath: path,
		content:  content,
	}
}

// ID returns the buffer's identity.
func (b *Buffer) ID() uuid.UUID { return b.id }

// Path returns the path this buffer was opened from.
func (b *Buffer) Path() string { return b.basePath }

// Text returns the current content.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

// Snapshot captures the current content and version.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Buffer) snapshotLocked() Snapshot {
	return Snapshot{
		content:    b.content,
		version:    b.version,
		history:    b.history[:len(b.history):len(b.history)],
		lineStarts: lineStartOffsets(b.content),
	}
}

// Content returns the snapshot's text.
func (s Snapshot) Content() string { return s.content }

// Len returns the snapshot's length in bytes.
func (s Snapshot) Len() int { return len(s.content) }

// Version returns the buffer version the snapshot was taken at.
func (s Snapshot) Version() uint64 { return s.version }

// Branch returns an independent copy of the buffer. The branch shares the
// base's history prefix, so anchors created against the base resolve in the
// branch, but edits to either side are invisible to the other.
func (b *Buffer) Branch() *Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	logging.Get(logging.CategoryBuffer).Debug("branching buffer",
		zap.String("path", b.basePath))
	return &Buffer{
		id:       uuid.New(),
		basePath: b.basePath,
		content:  b.content,
		version:  b.version,
		history:  append([]editRecord(nil), b.history...),
	}
}

// Edit applies a batch of replacements atomically. All ranges are resolved
// against the buffer state before any of them is applied, then written
// back-to-front so earlier spans do not displace later ones. One EditID is
// returned per span, in input order.
func (b *Buffer) Edit(spans []EditSpan, mode ReindentMode) ([]EditID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := b.snapshotLocked()
	type pending struct {
		inputIx    int
		start, end int
		text       string
	}
	resolved := make([]pending, 0, len(spans))
	for i, span := range spans {
		start, end := snap.ResolveRange(span.Range)
		text := span.Text
		if mode == ReindentBlock {
			text = reindentBlock(snap, start, end, text)
		}
		resolved = append(resolved, pending{inputIx: i, start: start, end: end, text: text})
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].start > resolved[j].start
	})
	for i := 1; i < len(resolved); i++ {
		if resolved[i].end > resolved[i-1].start {
			return nil, fmt.Errorf("overlapping edit spans at offsets %d and %d",
				resolved[i].start, resolved[i-1].start)
		}
	}

	ids := make([]EditID, len(spans))
	for _, p := range resolved {
		b.version++
		b.history = append(b.history, editRecord{
			version: b.version,
			start:   p.start,
			oldLen:  p.end - p.start,
			newLen:  len(p.text),
		})
		b.content = b.content[:p.start] + p.text + b.content[p.end:]
		ids[p.inputIx] = uuid.New()
	}
	return ids, nil
}

// Replace swaps the entire content, recording the change as one whole-buffer
// replacement. Used when the underlying file changes outside the buffer.
func (b *Buffer) Replace(content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if content == b.content {
		return
	}
	b.version++
	b.history = append(b.history, editRecord{
		version: b.version,
		start:   0,
		oldLen:  len(b.content),
		newLen:  len(content),
	})
	b.content = content
}

// reindentBlock rewrites text so its first non-empty line lines up with the
// indentation of the line the edit lands on. Whole-document replacements
// are left alone; there is no surrounding context to indent against.
func reindentBlock(snap Snapshot, start, end int, text string) string {
	if start == 0 && end == snap.Len() {
		return text
	}
	row := snap.OffsetToPoint(start).Row
	lineStart := snap.PointToOffset(Point{Row: row})
	line := snap.content[lineStart : lineStart+snap.LineLen(row)]
	target := line[:len(line)-len(strings.TrimLeft(line, " \t"))]

	lines := strings.Split(text, "\n")
	base := ""
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			base = l[:len(l)-len(strings.TrimLeft(l, " \t"))]
			break
		}
	}
	if target == base {
		return text
	}
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines[i] = target + strings.TrimPrefix(l, base)
	}
	return strings.Join(lines, "\n")
}
