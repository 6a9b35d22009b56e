package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the service can translate them into domain errors.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: no record with the requested id
// - ErrConflict: a record with the same id is already held
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
