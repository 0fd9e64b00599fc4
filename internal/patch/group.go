package patch

import (
	"sort"

	"codepatch/internal/textbuf"
)

// contextLines is how many lines of surrounding context each edit
// contributes to its review group on either side.
const contextLines = 5

// ResolvedEdit is a located edit whose range has been re-expressed as live
// anchors in a branch buffer.
type ResolvedEdit struct {
	Range       textbuf.AnchorRange
	NewText     string
	Description string

	// Snapshot offsets, retained for ordering and merging.
	start, end int
	inputIx    int
}

// ResolvedEditGroup is a run of nearby edits sharing one padded context
// range for review.
type ResolvedEditGroup struct {
	ContextRange textbuf.AnchorRange
	Edits        []ResolvedEdit
}

// tryMerge absorbs other into e when e's range fully contains other's.
// A zero-width other sitting exactly at e's start prepends its text on its
// own line and extends e's start; otherwise only descriptions combine.
// Returns false when there is no containment.
func (e *ResolvedEdit) tryMerge(other *ResolvedEdit) bool {
	if e.start > other.start || e.end < other.end {
		return false
	}

	if other.start == other.end && other.start == e.start {
		e.NewText = other.NewText + "\n" + e.NewText
		e.Range.Start = other.Range.Start
		if e.Description != "" && other.Description != "" {
			e.Description = other.Description + "\n" + e.Description
		}
	} else if e.Description != "" && other.Description != "" {
		e.Description = e.Description + "\n" + other.Description
	}
	return true
}

// groupEdits merges contained edits and clusters the survivors into padded,
// non-overlapping review groups in document order.
func groupEdits(edits []ResolvedEdit, snap textbuf.Snapshot) []ResolvedEditGroup {
	// Earlier, larger ranges first, so containers precede what they absorb.
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].end > edits[j].end
	})

	merged := edits[:0]
	for _, edit := range edits {
		if len(merged) > 0 && merged[len(merged)-1].tryMerge(&edit) {
			continue
		}
		merged = append(merged, edit)
	}

	var groups []ResolvedEditGroup
	lastContextEnd := -1
	for _, edit := range merged {
		startRow := snap.OffsetToPoint(edit.start).Row - contextLines
		if startRow < 0 {
			startRow = 0
		}
		endRow := snap.OffsetToPoint(edit.end).Row + contextLines
		if maxRow := snap.MaxPoint().Row; endRow > maxRow {
			endRow = maxRow
		}
		ctxStart := snap.PointToOffset(textbuf.Point{Row: startRow})
		ctxEnd := snap.PointToOffset(textbuf.Point{Row: endRow, Column: snap.LineLen(endRow)})

		if len(groups) > 0 && ctxStart <= lastContextEnd {
			group := &groups[len(groups)-1]
			group.ContextRange.End = snap.AnchorAfter(ctxEnd)
			group.Edits = append(group.Edits, edit)
		} else {
			groups = append(groups, ResolvedEditGroup{
				ContextRange: textbuf.AnchorRange{
					Start: snap.AnchorBefore(ctxStart),
					End:   snap.AnchorAfter(ctxEnd),
				},
				Edits: []ResolvedEdit{edit},
			})
		}
		lastContextEnd = ctxEnd
	}
	return groups
}
