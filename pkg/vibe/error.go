package vibe

import "errors"

var (
	// ErrProfileNotFound is returned when a profile lookup misses.
	ErrProfileNotFound = errors.New("vibe profile not found")

	// ErrItemNotFound is returned when a seed operation references an
	// item the vector store does not have.
	ErrItemNotFound = errors.New("item not found")

	// ErrNoVectors is returned when a centroid is requested over an
	// empty vector set.
	ErrNoVectors = errors.New("no vectors to aggregate")

	// ErrDimensionMismatch is returned when input vectors do not share
	// a single dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
