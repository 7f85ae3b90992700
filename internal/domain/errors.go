package domain

import "errors"

// Error kinds for an ingestion run. Wrap the underlying cause with
// fmt.Errorf("%w: %w", kind, err) and test with errors.Is.
var (
	ErrAuth          = errors.New("sink authentication failed")
	ErrSinkRead      = errors.New("existing key read failed")
	ErrFetch         = errors.New("listing fetch failed")
	ErrWrite         = errors.New("row append failed")
	ErrRunInProgress = errors.New("ingestion run already in progress")
)
