package db

import "tagratio/internal/store"

// Domain-level database error sentinels. They alias the store contract so
// callers can match either backend with errors.Is.
var (
	ErrEmptyStore  = store.ErrEmptyStore
	ErrTagNotFound = store.ErrTagNotFound
	ErrInvalidTopN = store.ErrInvalidTopN
)
