package movies

import "errors"

var (
	// ErrInvalidID indicates the supplied movie identifier is not well formed.
	ErrInvalidID = errors.New("invalid movie ID")
	// ErrNotFound indicates no movie with that id exists for the caller.
	ErrNotFound = errors.New("movie not found")
	// ErrInvalidTitle indicates a missing or blank title.
	ErrInvalidTitle = errors.New("title is required")
	// ErrInvalidYear indicates a publishing year outside the accepted range.
	ErrInvalidYear = errors.New("publishing year out of range")
)
