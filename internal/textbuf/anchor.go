package textbuf

// Anchor is a stable position in a buffer. It captures the offset at a
// particular buffer version together with a bias; resolving it against a
// later snapshot replays the edits recorded since that version, so the
// anchor keeps pointing at the same logical location as the text shifts.
type Anchor struct {
	offset  int
	bias    Bias
	version uint64
}

// AnchorRange is a pair of anchors delimiting a span of text.
type AnchorRange struct {
	Start Anchor
	End   Anchor
}

// editRecord describes one committed replacement. Offsets are relative to
// the buffer content immediately before the record was applied.
type editRecord struct {
	version uint64
	start   int
	oldLen  int
	newLen  int
}

func (r editRecord) adjust(offset int, bias Bias) int {
	end := r.start + r.oldLen
	switch {
	case offset < r.start:
		return offset
	case offset == r.start:
		if bias == BiasRight && r.oldLen == 0 {
			return r.start + r.newLen
		}
		return offset
	case offset >= end:
		return offset + r.newLen - r.oldLen
	default:
		if bias == BiasLeft {
			return r.start
		}
		return r.start + r.newLen
	}
}

// AnchorBefore returns a left-biased anchor at the given offset.
func (s Snapshot) AnchorBefore(offset int) Anchor {
	return Anchor{offset: s.ClipOffset(offset, BiasLeft), bias: BiasLeft, version: s.version}
}

// AnchorAfter returns a right-biased anchor at the given offset.
func (s Snapshot) AnchorAfter(offset int) Anchor {
	return Anchor{offset: s.ClipOffset(offset, BiasRight), bias: BiasRight, version: s.version}
}

// Resolve maps an anchor created at an earlier version to an offset in this
// snapshot. Anchors created at a later version than the snapshot resolve to
// their recorded offset clamped into bounds.
func (s Snapshot) Resolve(a Anchor) int {
	offset := a.offset
	for _, rec := range s.history {
		if rec.version > a.version {
			offset = rec.adjust(offset, a.bias)
		}
	}
	return clamp(offset, 0, len(s.content))
}

// ResolveRange maps an anchor range to concrete offsets in this snapshot.
func (s Snapshot) ResolveRange(r AnchorRange) (start, end int) {
	start = s.Resolve(r.Start)
	end = s.Resolve(r.End)
	if end < start {
		end = start
	}
	return start, end
}
