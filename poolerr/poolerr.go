// Package poolerr defines the error conditions shared by pools and the
// layers built on them.
package poolerr

import "errors"

var (
	// ErrInvalidArgument is the condition for nil instances or arrays passed
	// back to a pool, and other malformed inputs.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is the condition for lookups of unregistered pool names.
	ErrNotFound = errors.New("pool not found")
	// ErrDuplicate is the condition for registering a pool name twice.
	ErrDuplicate = errors.New("pool already registered")
)
