package segment

import (
	"errors"
	"fmt"
)

// ErrSegmentation matches every *Error.
var ErrSegmentation = errors.New("segmentation failed")

// Error describes why a segmentation could not be produced or accepted.
type Error struct {
	Reason string
	// Response holds the raw model output when the failure was in parsing.
	Response string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("segmentation failed: %s: %v", e.Reason, e.Err)
	}
	return "segmentation failed: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrSegmentation }

func invalid(format string, args ...interface{}) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}
