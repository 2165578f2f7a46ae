package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator adapters return
// these (optionally wrapped) so services can decide between degrading and failing.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record or session does not exist in store
// - ErrConflict: write collided with an existing row
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
