package patch

import "errors"

// ErrNotFound is returned by Materialize for a key no proposal was ever
// submitted under.
var ErrNotFound = errors.New("no patch for the given key")

// ResolutionError records a per-edit failure during location or
// materialization. Failures never abort the rest of the patch; they are
// collected and reported alongside the result.
type ResolutionError struct {
	EditIndex int
	Message   string
}
