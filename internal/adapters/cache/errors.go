package cache

import "errors"

// ErrNilProposal is returned when Set is called without a proposal.
var ErrNilProposal = errors.New("cache: nil proposal")
