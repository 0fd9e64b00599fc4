package textbuf

import (
	"sort"
	"unicode/utf8"
)

// Point is a zero-based row/column position. Column is a byte offset within
// the row.
type Point struct {
	Row    int
	Column int
}

// Bias picks a direction when a position falls on an ambiguous boundary,
// such as the middle of a multi-byte rune or the exact site of an insertion.
type Bias int

const (
	BiasLeft Bias = iota
	BiasRight
)

func lineStartOffsets(content string) []int {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// OffsetToPoint converts a byte offset into a row/column position.
func (s Snapshot) OffsetToPoint(offset int) Point {
	offset = clamp(offset, 0, len(s.content))
	row := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > offset
	}) - 1
	return Point{Row: row, Column: offset - s.lineStarts[row]}
}

// PointToOffset converts a row/column position into a byte offset, clamping
// the column to the row's length.
func (s Snapshot) PointToOffset(p Point) int {
	if p.Row < 0 {
		return 0
	}
	if p.Row >= len(s.lineStarts) {
		return len(s.content)
	}
	return s.lineStarts[p.Row] + clamp(p.Column, 0, s.LineLen(p.Row))
}

// LineLen returns the length of a row in bytes, excluding the trailing
// newline.
func (s Snapshot) LineLen(row int) int {
	if row < 0 || row >= len(s.lineStarts) {
		return 0
	}
	end := len(s.content)
	if row+1 < len(s.lineStarts) {
		end = s.lineStarts[row+1] - 1
	}
	return end - s.lineStarts[row]
}

// MaxPoint returns the position just past the last character.
func (s Snapshot) MaxPoint() Point {
	row := len(s.lineStarts) - 1
	return Point{Row: row, Column: s.LineLen(row)}
}

// ClipOffset clamps an offset into the snapshot and snaps it to the nearest
// rune boundary in the direction of bias.
func (s Snapshot) ClipOffset(offset int, bias Bias) int {
	offset = clamp(offset, 0, len(s.content))
	if offset == len(s.content) {
		return offset
	}
	switch bias {
	case BiasLeft:
		for offset > 0 && !utf8.RuneStart(s.content[offset]) {
			offset--
		}
	case BiasRight:
		for offset < len(s.content) && !utf8.RuneStart(s.content[offset]) {
			offset++
		}
	}
	return offset
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
