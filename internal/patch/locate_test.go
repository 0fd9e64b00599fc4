package patch

import (
	"strings"
	"testing"
)

// parseMarked extracts the «...» marked range from text, returning the plain
// text and the expected byte range.
func parseMarked(t *testing.T, marked string) (string, int, int) {
	t.Helper()
	start := strings.Index(marked, "«")
	if start < 0 {
		t.Fatalf("no start marker in %q", marked)
	}
	stripped := marked[:start] + marked[start+len("«"):]
	end := strings.Index(stripped, "»")
	if end < 0 {
		t.Fatalf("no end marker in %q", marked)
	}
	return stripped[:end] + stripped[end+len("»"):], start, end
}

func assertLocation(t *testing.T, marked, query string) {
	t.Helper()
	content, wantStart, wantEnd := parseMarked(t, marked)
	start, end := resolveLocation(content, query)
	if start != wantStart || end != wantEnd {
		t.Errorf("resolveLocation(%q) = %d..%d (%q), want %d..%d (%q)",
			query, start, end, content[start:end], wantStart, wantEnd, content[wantStart:wantEnd])
	}
}

func TestResolveLocationExactModuloWhitespace(t *testing.T) {
	assertLocation(t,
		"    Lorem\n«    ipsum\n    dolor sit amet»\n    consecteur",
		"ipsum\ndolor")
}

func TestResolveLocationTokenDrift(t *testing.T) {
	assertLocation(t, `«fn foo1(a: usize) -> usize {
    40
}»

fn foo2(b: usize) -> usize {
    42
}
`,
		"fn foo1(b: usize) {\n40\n}")
}

func TestResolveLocationReflowedChain(t *testing.T) {
	assertLocation(t, `fn main() {
«    Foo
        .bar()
        .baz()
        .qux()»
}

fn foo2(b: usize) -> usize {
    42
}
`,
		"Foo.bar.baz.qux()")
}

func TestResolveLocationSkipsMissingLines(t *testing.T) {
	assertLocation(t, `class Something {
    one() { return 1; }
«    two() { return 2222; }
    three() { return 333; }
    four() { return 4444; }
    five() { return 5555; }
    six() { return 6666; }
»    seven() { return 7; }
    eight() { return 8; }
}
`, `    two() { return 2222; }
    four() { return 4444; }
    five() { return 5555; }
    six() { return 6666; }
`)
}

func TestResolveLocationTrailingNewline(t *testing.T) {
	// A query ending in a newline must not capture the line after it.
	assertLocation(t, "alpha\n«beta\n»gamma\n", "beta\n")
	assertLocation(t, "fn a() {\n«    1\n»}\n", "1\n")
}

func TestResolveLocationLineSnapping(t *testing.T) {
	content := "lead\nalpha beta gamma\ntail\n"
	start, end := resolveLocation(content, "beta")
	if start != 5 || end != 21 {
		t.Fatalf("got %d..%d (%q)", start, end, content[start:end])
	}
	if start != 0 && content[start-1] != '\n' {
		t.Error("start is not at column 0")
	}
	if end != len(content) && content[end] != '\n' {
		t.Error("end is not at end of line")
	}
}

func TestResolveLocationDeterministic(t *testing.T) {
	content := "aa bb\ncc dd\naa bb\n"
	query := "aa bb"
	s1, e1 := resolveLocation(content, query)
	for i := 0; i < 10; i++ {
		s2, e2 := resolveLocation(content, query)
		if s1 != s2 || e1 != e2 {
			t.Fatalf("nondeterministic: %d..%d vs %d..%d", s1, e1, s2, e2)
		}
	}
}

func TestResolveLocationEmptyQuery(t *testing.T) {
	start, end := resolveLocation("some\ncontent\n", "")
	if start != 0 || end != 0 {
		t.Errorf("empty query = %d..%d, want 0..0", start, end)
	}
}

func TestResolveLocationEmptyContent(t *testing.T) {
	start, end := resolveLocation("", "anything")
	if start != 0 || end != 0 {
		t.Errorf("empty content = %d..%d, want 0..0", start, end)
	}
}

func TestResolveLocationWhitespaceOnlyDrift(t *testing.T) {
	content := "func a() {\n\treturn\t1\n}\n"
	start, end := resolveLocation(content, "return 1")
	if got := content[start:end]; got != "\treturn\t1" {
		t.Errorf("got %q", got)
	}
}
