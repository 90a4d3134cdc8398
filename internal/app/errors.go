package app

import "errors"

// ErrForbidden indicates that the authenticated user may not act on the
// resource, e.g. deleting another user's post.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports user-correctable input problems. Its message is
// safe to return to the client.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
