package patch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"codepatch/internal/logging"
	"codepatch/internal/textbuf"
)

// ProposalKey identifies the conversation span a proposal came from.
// Successive revisions submitted under the same key supersede one another.
type ProposalKey string

// Store caches one located result per proposal key and keeps it current as
// revisions arrive. Submission is fire-and-forget: location runs in the
// background and commits only if no newer revision has superseded it.
type Store struct {
	mu      sync.Mutex
	opener  BufferOpener
	entries map[ProposalKey]*storeEntry
	resolve resolveFunc
	log     *zap.Logger
}

type storeEntry struct {
	located    locatedPatch
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewStore creates a store that opens buffers through the given opener.
func NewStore(opener BufferOpener) *Store {
	return &Store{
		opener:  opener,
		entries: make(map[ProposalKey]*storeEntry),
		resolve: resolveLocation,
		log:     logging.Get(logging.CategoryStore),
	}
}

// Submit registers a proposal revision under a key and starts locating it in
// the background against the key's current cached result. Any in-flight
// location for the same key is superseded: its commit is refused and its
// context cancelled. Distinct keys are fully independent.
func (s *Store) Submit(key ProposalKey, proposal Proposal) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		entry = &storeEntry{}
		s.entries[key] = entry
	}
	if entry.cancel != nil {
		entry.cancel()
	}
	entry.generation++
	generation := entry.generation
	ctx, cancel := context.WithCancel(context.Background())
	entry.cancel = cancel
	done := make(chan struct{})
	entry.done = done
	prev := entry.located
	s.mu.Unlock()

	s.log.Debug("proposal submitted",
		zap.String("key", string(key)),
		zap.Uint64("generation", generation),
		zap.Int("edits", len(proposal.Edits)))

	go func() {
		defer close(done)
		located := locatePatch(ctx, proposal, prev, s.opener, s.resolve)

		s.mu.Lock()
		defer s.mu.Unlock()
		current := s.entries[key]
		if current == nil || current.generation != generation {
			s.log.Debug("superseded location result dropped",
				zap.String("key", string(key)),
				zap.Uint64("generation", generation))
			return
		}
		current.located = located
		current.cancel = nil
	}()
}

// Wait blocks until the most recently submitted revision for a key has been
// located (or superseded). Returns ErrNotFound for an unknown key.
func (s *Store) Wait(ctx context.Context, key ProposalKey) error {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	done := entry.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// BranchResult is the outcome of materializing a patch: per-file branch
// buffers with their applied edit groups, plus every per-edit failure.
type BranchResult struct {
	Files  []BranchFile
	Errors []ResolutionError
}

// BranchFile is one file's materialized edits on an isolated branch buffer.
type BranchFile struct {
	Path   string
	Buffer *textbuf.Buffer
	Groups []BranchEditGroup
}

// BranchEditGroup mirrors a ResolvedEditGroup after application.
type BranchEditGroup struct {
	ContextRange textbuf.AnchorRange
	Edits        []BranchEdit
}

// BranchEdit is one applied edit and the identifier the buffer returned for
// it.
type BranchEdit struct {
	Range       textbuf.AnchorRange
	NewText     string
	Description string
	EditID      textbuf.EditID
}

// Materialize snapshots the key's current located result and applies it to
// isolated branch buffers. The result reflects the cached state as of this
// call; concurrent Submits for the same key are neither blocked nor picked
// up. Per-file and per-edit failures are collected, never fatal. Only an
// unknown key fails the call.
func (s *Store) Materialize(ctx context.Context, key ProposalKey) (*BranchResult, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	located := entry.located
	s.mu.Unlock()

	log := logging.Get(logging.CategoryMaterialize)
	result := &BranchResult{}
	result.Errors = append(result.Errors, located.Failures...)

	for _, file := range located.Files {
		if len(file.Edits) == 0 {
			continue
		}
		buf, err := s.opener.OpenBuffer(ctx, file.Path)
		if err != nil {
			log.Warn("cannot open buffer for materialization",
				zap.String("path", file.Path), zap.Error(err))
			result.Errors = append(result.Errors, ResolutionError{
				EditIndex: file.Edits[0].inputIx,
				Message:   err.Error(),
			})
			continue
		}

		branch := buf.Branch()
		snap := branch.Snapshot()

		// The located ranges are valid against the snapshot captured at
		// location time; bring them up to date with the branch content
		// before anchoring.
		hunks := snap.DiffStrings(file.Content)
		adjusted := adjustForDrift(hunks, file.Edits)

		resolved := make([]ResolvedEdit, 0, len(adjusted))
		for _, edit := range adjusted {
			start := clamp(edit.Start, 0, snap.Len())
			end := clamp(edit.End, start, snap.Len())
			resolved = append(resolved, ResolvedEdit{
				Range: textbuf.AnchorRange{
					Start: snap.AnchorBefore(start),
					End:   snap.AnchorAfter(end),
				},
				NewText:     edit.NewText,
				Description: edit.Description,
				start:       start,
				end:         end,
				inputIx:     edit.inputIx,
			})
		}

		branchFile := BranchFile{Path: file.Path, Buffer: branch}
		for _, group := range groupEdits(resolved, snap) {
			branchGroup := BranchEditGroup{ContextRange: group.ContextRange}
			for _, edit := range group.Edits {
				ids, err := branch.Edit(
					[]textbuf.EditSpan{{Range: edit.Range, Text: edit.NewText}},
					textbuf.ReindentBlock,
				)
				if err != nil {
					log.Warn("edit application failed",
						zap.String("path", file.Path),
						zap.Int("edit", edit.inputIx),
						zap.Error(err))
					result.Errors = append(result.Errors, ResolutionError{
						EditIndex: edit.inputIx,
						Message:   err.Error(),
					})
					continue
				}
				branchGroup.Edits = append(branchGroup.Edits, BranchEdit{
					Range:       edit.Range,
					NewText:     edit.NewText,
					Description: edit.Description,
					EditID:      ids[0],
				})
			}
			branchFile.Groups = append(branchFile.Groups, branchGroup)
		}
		result.Files = append(result.Files, branchFile)
	}

	log.Debug("patch materialized",
		zap.String("key", string(key)),
		zap.Int("files", len(result.Files)),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// adjustForDrift merge-walks diff hunks (located snapshot → live content)
// against start-sorted located edits. Edits past a hunk shift by the hunk's
// length delta; edits a hunk intersects are widened to cover the hunk's new
// text, so no edit ever targets text known to have changed. A hunk is not
// consumed by the first edit it intersects: overlapping edits each widen
// over it.
func adjustForDrift(hunks []textbuf.Hunk, edits []locatedEdit) []locatedEdit {
	if len(hunks) == 0 {
		return edits
	}
	out := append([]locatedEdit(nil), edits...)
	delta := 0
	h := 0
	for i := range out {
		edit := &out[i]

		// Consume hunks that end before this edit begins. Every later edit
		// starts at or after this one, so these hunks are done for good.
		for h < len(hunks) && hunks[h].End <= edit.Start {
			delta += len(hunks[h].NewText) - (hunks[h].End - hunks[h].Start)
			h++
		}

		start := edit.Start + delta
		end := edit.End + delta

		// Widen over every hunk intersecting the edit's original range,
		// without advancing the shared cursor.
		localDelta := delta
		for j := h; j < len(hunks) && hunks[j].Start < edit.End; j++ {
			hunkStart := hunks[j].Start + localDelta
			if hunkStart < start {
				start = hunkStart
			}
			tail := 0
			if edit.End > hunks[j].End {
				tail = edit.End - hunks[j].End
			}
			end = hunkStart + len(hunks[j].NewText) + tail
			localDelta += len(hunks[j].NewText) - (hunks[j].End - hunks[j].Start)
		}

		edit.Start = start
		edit.End = end
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
