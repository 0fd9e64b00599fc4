package patch

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codepatch/internal/logging"
	"codepatch/internal/textbuf"
)

// BufferOpener resolves a path string to an openable live buffer. Implemented
// by workspace.Manager.
type BufferOpener interface {
	OpenBuffer(ctx context.Context, path string) (*textbuf.Buffer, error)
}

// locatedEdit is an edit whose excerpt has been pinned to a concrete byte
// range in a content snapshot.
type locatedEdit struct {
	Start       int
	End         int
	NewText     string
	Description string
	inputIx     int
}

// locatedFile holds every located edit for one path, together with the
// content snapshot the ranges are valid against. Edits are kept sorted by
// start offset with unique starts.
type locatedFile struct {
	Path    string
	Content string
	Edits   []locatedEdit
}

// locatedPatch is the cached result of locating one proposal revision.
type locatedPatch struct {
	Proposal Proposal
	Files    []locatedFile
	Failures []ResolutionError
}

// insertEdit places a located edit into the file's start-sorted edit list.
// A later edit at an existing start replaces the earlier one.
func (f *locatedFile) insertEdit(edit locatedEdit) {
	ix := sort.Search(len(f.Edits), func(i int) bool {
		return f.Edits[i].Start >= edit.Start
	})
	if ix < len(f.Edits) && f.Edits[ix].Start == edit.Start {
		f.Edits[ix] = edit
		return
	}
	f.Edits = append(f.Edits, locatedEdit{})
	copy(f.Edits[ix+1:], f.Edits[ix:])
	f.Edits[ix] = edit
}

// locatePatch turns a proposal revision into a located patch, reusing work
// from the previous revision wherever an edit is structurally unchanged.
// Fresh alignments are CPU-bound and fan out to a bounded worker pool;
// insertion stays deterministic in input-edit order.
func locatePatch(ctx context.Context, proposal Proposal, prev locatedPatch, opener BufferOpener, resolve resolveFunc) locatedPatch {
	log := logging.Get(logging.CategoryLocator)

	result := locatedPatch{Proposal: proposal}

	// fileIx[i] is the index into result.Files for edit i, or -1 when the
	// edit was skipped because its file could not be opened.
	fileIx := make([]int, len(proposal.Edits))
	type pendingJob struct {
		editIx  int
		kind    EditKind
		content string
	}
	var jobs []pendingJob
	reused := make(map[int]locatedEdit)

	for editIx, edit := range proposal.Edits {
		ix := sort.Search(len(result.Files), func(i int) bool {
			return result.Files[i].Path >= edit.Path
		})
		if ix == len(result.Files) || result.Files[ix].Path != edit.Path {
			content, ok := contentForPath(ctx, edit.Path, prev, opener, &result, editIx, log)
			if !ok {
				fileIx[editIx] = -1
				continue
			}
			result.Files = append(result.Files, locatedFile{})
			copy(result.Files[ix+1:], result.Files[ix:])
			result.Files[ix] = locatedFile{Path: edit.Path, Content: content}
		}
		fileIx[editIx] = ix

		if old, ok := previousLocation(edit, prev); ok {
			old.inputIx = editIx
			reused[editIx] = old
			continue
		}
		jobs = append(jobs, pendingJob{
			editIx:  editIx,
			kind:    edit.Kind,
			content: result.Files[ix].Content,
		})
	}

	// sort.Search indexes shift as later paths are inserted; recompute from
	// the final ordering before placing edits.
	pathIndex := make(map[string]int, len(result.Files))
	for i, f := range result.Files {
		pathIndex[f.Path] = i
	}

	fresh := make([]locatedEdit, len(proposal.Edits))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, job := range jobs {
		job := job
		eg.Go(func() error {
			fresh[job.editIx] = job.kind.locate(job.editIx, job.content, resolve)
			return nil
		})
	}
	_ = eg.Wait()

	located := 0
	for editIx, edit := range proposal.Edits {
		if fileIx[editIx] < 0 {
			continue
		}
		file := &result.Files[pathIndex[edit.Path]]
		if old, ok := reused[editIx]; ok {
			file.insertEdit(old)
		} else {
			file.insertEdit(fresh[editIx])
			located++
		}
	}

	log.Debug("proposal located",
		zap.Int("edits", len(proposal.Edits)),
		zap.Int("aligned", located),
		zap.Int("reused", len(reused)),
		zap.Int("files", len(result.Files)),
		zap.Int("skipped", len(result.Failures)))
	return result
}

// contentForPath finds the content snapshot to locate a path's edits
// against: the previous revision's snapshot when available (drift against
// the live file is reconciled at materialization time), otherwise the live
// buffer. Open failures are recorded and the edit is skipped.
func contentForPath(ctx context.Context, path string, prev locatedPatch, opener BufferOpener, result *locatedPatch, editIx int, log *zap.Logger) (string, bool) {
	if old, ok := previousFile(prev, path); ok {
		return old.Content, true
	}
	buf, err := opener.OpenBuffer(ctx, path)
	if err != nil {
		log.Warn("cannot open buffer for edit",
			zap.String("path", path), zap.Error(err))
		result.Failures = append(result.Failures, ResolutionError{
			EditIndex: editIx,
			Message:   err.Error(),
		})
		return "", false
	}
	return buf.Text(), true
}

func previousFile(prev locatedPatch, path string) (*locatedFile, bool) {
	ix := sort.Search(len(prev.Files), func(i int) bool {
		return prev.Files[i].Path >= path
	})
	if ix < len(prev.Files) && prev.Files[ix].Path == path {
		return &prev.Files[ix], true
	}
	return nil, false
}

// previousLocation looks for a structurally identical edit in the previous
// revision and, if its located range survived, reuses it verbatim.
func previousLocation(edit Edit, prev locatedPatch) (locatedEdit, bool) {
	for oldIx, oldEdit := range prev.Proposal.Edits {
		if oldEdit != edit {
			continue
		}
		file, ok := previousFile(prev, edit.Path)
		if !ok {
			return locatedEdit{}, false
		}
		for _, oldLocated := range file.Edits {
			if oldLocated.inputIx == oldIx {
				return oldLocated, true
			}
		}
		return locatedEdit{}, false
	}
	return locatedEdit{}, false
}
