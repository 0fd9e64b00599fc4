// Package patch locates approximately-specified text edits inside live files
// and materializes them onto isolated branch buffers. Edits arrive as quoted
// excerpts of the text they should replace rather than exact offsets; the
// package finds where each excerpt currently lives, keeps the result cached
// and incrementally updated as the proposal is revised, reconciles it with
// concurrent changes to the underlying file, and applies the edits grouped
// into reviewable, non-overlapping spans.
package patch

// Edit is one approximate edit: a path plus an operation on that file.
// Edit values are comparable; structural equality is what lets a revised
// proposal reuse location work from its predecessor.
type Edit struct {
	Path string
	Kind EditKind
}

// EditKind is one of the five edit operations.
type EditKind interface {
	locate(inputIx int, content string, resolve resolveFunc) locatedEdit
}

// Update replaces the located occurrence of OldText with NewText.
type Update struct {
	OldText     string
	NewText     string
	Description string
}

// Create replaces the entire document with NewText, or fills in a file that
// does not exist yet.
type Create struct {
	NewText     string
	Description string
}

// InsertBefore inserts NewText on its own line before the located OldText.
type InsertBefore struct {
	OldText     string
	NewText     string
	Description string
}

// InsertAfter inserts NewText on its own line after the located OldText.
type InsertAfter struct {
	OldText     string
	NewText     string
	Description string
}

// Delete removes the located occurrence of OldText.
type Delete struct {
	OldText string
}

func (k Update) locate(inputIx int, content string, resolve resolveFunc) locatedEdit {
	start, end := resolve(content, k.OldText)
	return locatedEdit{
		Start:       start,
		End:         end,
		NewText:     k.NewText,
		Description: k.Description,
		inputIx:     inputIx,
	}
}

func (k Create) locate(inputIx int, content string, _ resolveFunc) locatedEdit {
	return locatedEdit{
		Start:       0,
		End:         len(content),
		NewText:     k.NewText,
		Description: k.Description,
		inputIx:     inputIx,
	}
}

func (k InsertBefore) locate(inputIx int, content string, resolve resolveFunc) locatedEdit {
	start, _ := resolve(content, k.OldText)
	return locatedEdit{
		Start:       start,
		End:         start,
		NewText:     k.NewText + "\n",
		Description: k.Description,
		inputIx:     inputIx,
	}
}

func (k InsertAfter) locate(inputIx int, content string, resolve resolveFunc) locatedEdit {
	_, end := resolve(content, k.OldText)
	return locatedEdit{
		Start:       end,
		End:         end,
		NewText:     "\n" + k.NewText,
		Description: k.Description,
		inputIx:     inputIx,
	}
}

func (k Delete) locate(inputIx int, content string, resolve resolveFunc) locatedEdit {
	start, end := resolve(content, k.OldText)
	return locatedEdit{
		Start:   start,
		End:     end,
		inputIx: inputIx,
	}
}

// ProposalStatus reports whether a proposal is still streaming in.
type ProposalStatus int

const (
	StatusPending ProposalStatus = iota
	StatusReady
)

// Proposal is one revision of an edit proposal. Revisions for the same
// provenance key supersede one another in the store.
type Proposal struct {
	Title  string
	Edits  []Edit
	Status ProposalStatus
}
