// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting
// driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP 403
// response.
var ErrForbidden = errors.New("forbidden")

// ErrUsernameExists is returned when registration presents an already-taken
// username.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when registration presents an already-taken
// email address.
var ErrEmailExists = errors.New("email already exists")
