// Package kerr defines the sentinel error taxonomy shared by every kernel
// subsystem: argument, state, I/O, not-found, no-space and parse errors.
// Callers use errors.Is against these rather than comparing integer codes,
// the Go-hosted equivalent of the FS_ERR_* return codes in the C original.
package kerr

import "errors"

var (
	// ErrArgument is returned for a null pointer, bad flag, or name too long.
	ErrArgument = errors.New("kerr: invalid argument")
	// ErrState is returned for operations on an unmounted FS, a closed
	// file descriptor, or a mid-chain corruption.
	ErrState = errors.New("kerr: invalid state")
	// ErrIO is returned when the underlying read/write/seek/flush fails.
	ErrIO = errors.New("kerr: i/o failure")
	// ErrNotFound is returned when a name or chain link cannot be resolved.
	ErrNotFound = errors.New("kerr: not found")
	// ErrNoSpace is returned when a pool (pages, blocks, fds, nodes) is exhausted.
	ErrNoSpace = errors.New("kerr: no space")
	// ErrParse is returned by the shell parser on a grammar violation.
	ErrParse = errors.New("kerr: parse error")
)
