package translation

import "errors"

var (
	// ErrResourceIO is returned when the resource directory or file cannot be created, read
	// or written.
	ErrResourceIO = errors.New("translation resource io failure")

	// ErrResourceCorrupt is returned when a resource file holds content that is not a
	// translation document. Such files are never overwritten automatically.
	ErrResourceCorrupt = errors.New("translation resource corrupt")
)

// ErrInvalidCulture is returned for culture codes that cannot be part of a file name.
var ErrInvalidCulture = errors.New("invalid culture code")
