package repository

import "errors"

// Sentinel kinds for catalog load errors.
var (
	ErrDuplicateID      = errors.New("duplicate id")
	ErrUnknownReference = errors.New("unknown reference")
	ErrCategoryCycle    = errors.New("category hierarchy contains a cycle")
)
