// Package process enumerates the processes of the running system and selects
// one by name prefix and session.
package process

import "errors"

var (
	// ErrSystemQuery is returned when the process-information query itself fails.
	ErrSystemQuery = errors.New("system process query failed")

	// ErrLengthMismatch is reported by a Querier when the supplied buffer cannot
	// hold the whole process table. The reported size is the size to retry with.
	ErrLengthMismatch = errors.New("information length mismatch")

	// ErrMalformedSnapshot is returned when a record in the snapshot would read
	// outside the buffer.
	ErrMalformedSnapshot = errors.New("malformed process snapshot")

	// ErrNotFound is returned when no record matches a name prefix and session.
	ErrNotFound = errors.New("process not found")
)
