package util

import "github.com/oklog/ulid/v2"

// NewULID returns a lexically sortable identifier. ulid.Make draws from a
// process-wide monotonic source, so ids created in the same millisecond still
// sort in creation order.
func NewULID() string {
	return ulid.Make().String()
}
