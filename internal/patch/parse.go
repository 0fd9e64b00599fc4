package patch

import "fmt"

// RawEdit is an edit as it arrives from the model, before validation. Nil
// pointer fields are fields the model omitted.
type RawEdit struct {
	Path        string
	Operation   string
	OldText     *string
	NewText     *string
	Description string
}

// ParseEdit validates a raw edit and produces a typed Edit. Malformed edits
// are rejected here, before they can enter the store.
func ParseEdit(raw RawEdit) (Edit, error) {
	if raw.Path == "" {
		return Edit{}, fmt.Errorf("edit spec: missing path")
	}
	if raw.Operation == "" {
		return Edit{}, fmt.Errorf("edit spec: missing operation")
	}

	need := func(name string, v *string) (string, error) {
		if v == nil {
			return "", fmt.Errorf("edit spec %q: missing %s", raw.Operation, name)
		}
		return *v, nil
	}

	var kind EditKind
	switch raw.Operation {
	case "update":
		oldText, err := need("old_text", raw.OldText)
		if err != nil {
			return Edit{}, err
		}
		newText, err := need("new_text", raw.NewText)
		if err != nil {
			return Edit{}, err
		}
		kind = Update{OldText: oldText, NewText: newText, Description: raw.Description}
	case "insert_before":
		oldText, err := need("old_text", raw.OldText)
		if err != nil {
			return Edit{}, err
		}
		newText, err := need("new_text", raw.NewText)
		if err != nil {
			return Edit{}, err
		}
		kind = InsertBefore{OldText: oldText, NewText: newText, Description: raw.Description}
	case "insert_after":
		oldText, err := need("old_text", raw.OldText)
		if err != nil {
			return Edit{}, err
		}
		newText, err := need("new_text", raw.NewText)
		if err != nil {
			return Edit{}, err
		}
		kind = InsertAfter{OldText: oldText, NewText: newText, Description: raw.Description}
	case "delete":
		oldText, err := need("old_text", raw.OldText)
		if err != nil {
			return Edit{}, err
		}
		kind = Delete{OldText: oldText}
	case "create":
		newText, err := need("new_text", raw.NewText)
		if err != nil {
			return Edit{}, err
		}
		kind = Create{NewText: newText, Description: raw.Description}
	default:
		return Edit{}, fmt.Errorf("edit spec: unknown operation %q", raw.Operation)
	}

	return Edit{Path: raw.Path, Kind: kind}, nil
}
