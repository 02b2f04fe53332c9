package vector

import "errors"

var (
	// ErrNotFound is returned when an item is not found in the store.
	ErrNotFound = errors.New("item not found")

	// ErrSearchUnavailable is returned when the backend's similarity
	// search path cannot serve a query. Callers may fall back to a
	// manual scan.
	ErrSearchUnavailable = errors.New("similarity search unavailable")

	// ErrConnection is returned when the store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
