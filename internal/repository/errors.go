package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("repository: conflict")
	// ErrIntegrity indicates a stored document could not be decoded into
	// its expected shape. Callers must surface it, never treat it as an
	// empty result.
	ErrIntegrity = errors.New("repository: integrity")
)
