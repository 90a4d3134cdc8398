package domain

import "errors"

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername indicates that the username is already taken.
	// The storage-level unique constraint is the authoritative guard; the
	// application-level lookup is only a friendlier fast path.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateLike indicates that a like for the (user, post) pair
	// already exists.
	ErrDuplicateLike = errors.New("like already exists")
	// ErrStorageTimeout indicates that a store operation hit its deadline.
	ErrStorageTimeout = errors.New("storage timeout")
)
