package security

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateULID returns a new lexicographically sortable unique id.
func GenerateULID() string {
	return ulid.Make().String()
}

// GeneratePrefixedID returns a ULID with a readable prefix, used for
// visitor and session identifiers.
func GeneratePrefixedID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, ulid.Make().String())
}
