package queue

import "errors"

// Reasons a job is refused.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)
