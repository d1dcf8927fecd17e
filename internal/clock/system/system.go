// Package system provides the wall clock used for record and ledger timestamps.
package system

import "time"

// Clock implements gazette.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time truncated to microseconds, the precision
// of Postgres timestamptz, so stored and in-memory values compare equal.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
