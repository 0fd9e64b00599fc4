package textbuf

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Hunk is one unit of a diff: a byte range in the old text paired with the
// text that replaces it. A pure insertion has Start == End.
type Hunk struct {
	Start   int
	End     int
	NewText string
}

// DiffStrings diffs old against the snapshot's content and returns ordered,
// non-overlapping hunks expressed in old's coordinates. Adjacent delete and
// insert runs collapse into a single replacement hunk.
func (s Snapshot) DiffStrings(old string) []Hunk {
	if old == s.content {
		return nil
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMain(old, s.content, false)

	var hunks []Hunk
	oldPos := 0
	pending := false
	var cur Hunk
	flush := func() {
		if pending {
			hunks = append(hunks, cur)
			pending = false
		}
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			oldPos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if !pending {
				cur = Hunk{Start: oldPos, End: oldPos}
				pending = true
			}
			cur.End += len(d.Text)
			oldPos += len(d.Text)
		case diffmatchpatch.DiffInsert:
			if !pending {
				cur = Hunk{Start: oldPos, End: oldPos}
				pending = true
			}
			cur.NewText += d.Text
		}
	}
	flush()
	return hunks
}
