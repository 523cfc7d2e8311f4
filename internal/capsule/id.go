package capsule

import (
	"fmt"
	"strings"
)

// ID is an opaque identifier for a stored envelope. Minted identifiers are
// random UUIDs; records written to an explicit location may carry any name
// that is safe to use as a single path element.
type ID string

// ParseID validates a raw identifier. It rejects anything that could escape
// the storage root when joined onto a path.
func ParseID(raw string) (ID, error) {
	if raw == "" {
		return "", fmt.Errorf("empty identifier")
	}
	if raw == "." || raw == ".." || strings.ContainsAny(raw, `/\`) {
		return "", fmt.Errorf("invalid identifier %q", raw)
	}
	return ID(raw), nil
}

func (id ID) String() string { return string(id) }
