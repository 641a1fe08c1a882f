package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrInvalidURI is returned by dialers when the connection URI cannot be parsed.
// The URI itself is never included.
var ErrInvalidURI = errors.New("backend connection URI is malformed")
