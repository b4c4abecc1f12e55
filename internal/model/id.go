package model

import "github.com/oklog/ulid/v2"

// NewID returns a fresh ULID: a millisecond timestamp followed by random
// bits. ulid.Make draws from a process-wide entropy source that is safe
// for concurrent use.
func NewID() string {
	return ulid.Make().String()
}
