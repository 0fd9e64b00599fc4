package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseEdit(t *testing.T) {
	edit, err := ParseEdit(RawEdit{
		Path:        "src/main.rs",
		Operation:   "update",
		OldText:     strPtr("old"),
		NewText:     strPtr("new"),
		Description: "swap it",
	})
	require.NoError(t, err)
	assert.Equal(t, "src/main.rs", edit.Path)
	assert.Equal(t, Update{OldText: "old", NewText: "new", Description: "swap it"}, edit.Kind)

	edit, err = ParseEdit(RawEdit{
		Path:      "a.txt",
		Operation: "delete",
		OldText:   strPtr("gone"),
		NewText:   strPtr("ignored"),
	})
	require.NoError(t, err)
	assert.Equal(t, Delete{OldText: "gone"}, edit.Kind)

	edit, err = ParseEdit(RawEdit{
		Path:      "b.txt",
		Operation: "create",
		NewText:   strPtr("content"),
	})
	require.NoError(t, err)
	assert.Equal(t, Create{NewText: "content"}, edit.Kind)
}

func TestParseEditRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  RawEdit
	}{
		{"missing path", RawEdit{Operation: "update", OldText: strPtr("a"), NewText: strPtr("b")}},
		{"missing operation", RawEdit{Path: "x.txt", OldText: strPtr("a")}},
		{"unknown operation", RawEdit{Path: "x.txt", Operation: "rename", OldText: strPtr("a")}},
		{"update without old_text", RawEdit{Path: "x.txt", Operation: "update", NewText: strPtr("b")}},
		{"update without new_text", RawEdit{Path: "x.txt", Operation: "update", OldText: strPtr("a")}},
		{"insert_before without new_text", RawEdit{Path: "x.txt", Operation: "insert_before", OldText: strPtr("a")}},
		{"insert_after without old_text", RawEdit{Path: "x.txt", Operation: "insert_after", NewText: strPtr("b")}},
		{"delete without old_text", RawEdit{Path: "x.txt", Operation: "delete"}},
		{"create without new_text", RawEdit{Path: "x.txt", Operation: "create"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEdit(tc.raw)
			assert.Error(t, err)
		})
	}
}
