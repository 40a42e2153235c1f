package filter

import "errors"

// Domain errors for the filter package.
var (
	// ErrUnnamedSet is returned when registering a filter set without a name.
	ErrUnnamedSet = errors.New("filter: set name is required")

	// ErrSetExists is returned when creating a set under a taken name.
	ErrSetExists = errors.New("filter: set already exists")

	// ErrSetNotFound is returned when a named set is not registered.
	ErrSetNotFound = errors.New("filter: set not found")
)
