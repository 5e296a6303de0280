package registry

import "errors"

var (
	// ErrInvalidID is returned when a candidate id fails the id pattern.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidURL is returned when a candidate url does not parse as
	// an absolute URL.
	ErrInvalidURL = errors.New("invalid url")
)
