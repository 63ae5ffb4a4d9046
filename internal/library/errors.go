package library

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyAnalysis       = errors.New("analysis has no episodes")
	ErrMissingCanonicalID  = errors.New("analysis has no canonical id")
	ErrUnsupportedDatabase = errors.New("unsupported database driver")
)
