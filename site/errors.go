package site

import "errors"

var (
	// ErrInvalidManifest signals a manifest that decodes but is not usable.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrDuplicateSlug is returned when two siblings would render to the same directory.
	ErrDuplicateSlug = errors.New("duplicate slug")
)
