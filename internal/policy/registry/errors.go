package registry

import "errors"

var (
	ErrNotFound  = errors.New("registry: not found")
	ErrNotLoaded = errors.New("registry: no snapshot loaded")

	// Registration-time errors. A failed registration leaves the previously
	// active snapshot in place.
	ErrDuplicateIdentifier        = errors.New("registry: duplicate identifier")
	ErrUnknownScopeReference      = errors.New("registry: unknown scope reference")
	ErrInvalidClientConfiguration = errors.New("registry: invalid client configuration")
	ErrInvalidResource            = errors.New("registry: invalid resource")
)
