package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, locks and dependency
// adapters return these (optionally wrapped) so services can translate them
// into coded domain errors.
//
//   - ErrNotFound: link, archive or audit entry does not exist
//   - ErrConflict: identity lock held by a concurrent operation, or a uniqueness race
//   - ErrExpired: retained record is past its retention window
//   - ErrInvalidState: operation addresses a record outside the locked identity
//   - ErrUnavailable: dependency (privilege guard, broker) unreachable or timed out
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
