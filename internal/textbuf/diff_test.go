package textbuf

import (
	"testing"
)

func applyHunks(old string, hunks []Hunk) string {
	out := ""
	pos := 0
	for _, h := range hunks {
		out += old[pos:h.Start] + h.NewText
		pos = h.End
	}
	return out + old[pos:]
}

func TestDiffStringsRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"identical", "same\ntext\n", "same\ntext\n"},
		{"insertion", "one\nthree\n", "one\ntwo\nthree\n"},
		{"deletion", "one\ntwo\nthree\n", "one\nthree\n"},
		{"replacement", "alpha beta gamma", "alpha BETA gamma"},
		{"prefix growth", "body\n", "header\nbody\n"},
		{"everything changed", "aaaa", "zzzz"},
		{"empty old", "", "new file\n"},
		{"empty new", "gone\n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := NewBuffer("test.txt", tc.new).Snapshot()
			hunks := snap.DiffStrings(tc.old)
			if got := applyHunks(tc.old, hunks); got != tc.new {
				t.Errorf("hunks do not reproduce new text:\nhunks: %+v\ngot:  %q\nwant: %q",
					hunks, got, tc.new)
			}
			for i := 1; i < len(hunks); i++ {
				if hunks[i].Start < hunks[i-1].End {
					t.Errorf("hunks out of order: %+v", hunks)
				}
			}
		})
	}
}

func TestDiffStringsIdenticalIsEmpty(t *testing.T) {
	snap := NewBuffer("test.txt", "abc").Snapshot()
	if hunks := snap.DiffStrings("abc"); hunks != nil {
		t.Errorf("expected nil hunks, got %+v", hunks)
	}
}

func TestDiffStringsSingleInsertion(t *testing.T) {
	snap := NewBuffer("test.txt", "one\ntwo\nthree\n").Snapshot()
	hunks := snap.DiffStrings("one\nthree\n")
	if len(hunks) != 1 {
		t.Fatalf("expected one hunk, got %+v", hunks)
	}
	h := hunks[0]
	if h.Start != h.End || len(h.NewText) != 4 {
		t.Errorf("expected pure 4-byte insertion, got %+v", h)
	}
}
