package patch

import (
	"strings"
	"unicode/utf8"
)

// resolveFunc finds the byte range in content that best matches a quoted
// excerpt. Injected so tests can observe when fresh alignments happen.
type resolveFunc func(content, query string) (start, end int)

// Alignment costs. Whitespace drift is nearly free in both directions.
// Query text missing from the file is penalized much harder than extra file
// text absent from the query: the first usually means the excerpt describes
// unrelated code, the second just means the file has grown around it.
const (
	insertionCost           = 3
	deletionCost            = 10
	whitespaceInsertionCost = 1
	whitespaceDeletionCost  = 1
)

type searchDirection uint8

// Direction order is a tie-break: when candidate costs are equal the
// numerically smaller direction wins. Changing this order changes which
// alignment is chosen on ambiguous inputs.
const (
	searchUp searchDirection = iota
	searchLeft
	searchDiagonal
)

type searchState struct {
	cost      uint32
	direction searchDirection
}

func minState(a, b searchState) searchState {
	if b.cost < a.cost || (b.cost == a.cost && b.direction < a.direction) {
		return b
	}
	return a
}

// searchMatrix is a flat row-major matrix of alignment states.
type searchMatrix struct {
	cols int
	data []searchState
}

func newSearchMatrix(rows, cols int) *searchMatrix {
	return &searchMatrix{
		cols: cols,
		data: make([]searchState, rows*cols),
	}
}

func (m *searchMatrix) get(row, col int) searchState {
	return m.data[row*m.cols+col]
}

func (m *searchMatrix) set(row, col int, state searchState) {
	m.data[row*m.cols+col] = state
}

func satAdd(a, b uint32) uint32 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint32(0)
}

// resolveLocation aligns query against content and returns the byte range of
// the best match, widened to whole lines. The alignment is semi-global: the
// match may begin at any point in content for free, but every query byte
// must be consumed. Pure and deterministic.
func resolveLocation(content, query string) (int, int) {
	if len(query) == 0 {
		return 0, 0
	}

	matrix := newSearchMatrix(len(query)+1, len(content)+1)
	leadingDeletionCost := uint32(0)
	for row := 0; row < len(query); row++ {
		queryByte := query[row]
		delCost := uint32(deletionCost)
		if isASCIIWhitespace(queryByte) {
			delCost = whitespaceDeletionCost
		}

		leadingDeletionCost = satAdd(leadingDeletionCost, delCost)
		matrix.set(row+1, 0, searchState{cost: leadingDeletionCost, direction: searchDiagonal})

		for col := 0; col < len(content); col++ {
			contentByte := content[col]
			insCost := uint32(insertionCost)
			if isASCIIWhitespace(contentByte) {
				insCost = whitespaceInsertionCost
			}

			up := searchState{
				cost:      satAdd(matrix.get(row, col+1).cost, delCost),
				direction: searchUp,
			}
			left := searchState{
				cost:      satAdd(matrix.get(row+1, col).cost, insCost),
				direction: searchLeft,
			}
			diagonal := searchState{direction: searchDiagonal}
			if queryByte == contentByte {
				diagonal.cost = matrix.get(row, col).cost
			} else {
				diagonal.cost = satAdd(matrix.get(row, col).cost, delCost+insCost)
			}
			matrix.set(row+1, col+1, minState(minState(up, left), diagonal))
		}
	}

	// The best match ends at the cheapest column of the final row.
	bestEnd := len(content)
	bestCost := ^uint32(0)
	for col := 1; col <= len(content); col++ {
		if cost := matrix.get(len(query), col).cost; cost < bestCost {
			bestCost = cost
			bestEnd = col
		}
	}

	// Trace back to the row-0 boundary to find where the match begins.
	queryIx := len(query)
	contentIx := bestEnd
	for queryIx > 0 && contentIx > 0 {
		switch matrix.get(queryIx, contentIx).direction {
		case searchDiagonal:
			queryIx--
			contentIx--
		case searchUp:
			queryIx--
		case searchLeft:
			contentIx--
		}
	}

	start := clipToRuneBoundary(content, contentIx, false)
	end := clipToRuneBoundary(content, bestEnd, true)
	return snapToLines(content, start, end)
}

func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func clipToRuneBoundary(content string, offset int, forward bool) int {
	if offset < 0 {
		return 0
	}
	if offset >= len(content) {
		return len(content)
	}
	if forward {
		for offset < len(content) && !utf8.RuneStart(content[offset]) {
			offset++
		}
	} else {
		for offset > 0 && !utf8.RuneStart(content[offset]) {
			offset--
		}
	}
	return offset
}

// snapToLines widens a range outward to enclose whole lines: the start moves
// to column 0 and the end to the end of its line, excluding the newline. An
// end already at column 0 means the match consumed a trailing newline and is
// left alone; widening it would capture the following line.
func snapToLines(content string, start, end int) (int, int) {
	start = strings.LastIndexByte(content[:start], '\n') + 1
	if end > 0 && content[end-1] == '\n' {
		return start, end
	}
	if rel := strings.IndexByte(content[end:], '\n'); rel >= 0 {
		end += rel
	} else {
		end = len(content)
	}
	return start, end
}
