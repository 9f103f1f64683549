package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Locks, stores and capability
// adapters return these (optionally wrapped) so services can translate them
// into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrConflict: resource is held by someone else (submit lock, camera)
//   - ErrInvalidState: entity in wrong state for requested operation
//   - ErrUnavailable: service or resource temporarily unavailable
//   - ErrClosed: the resource was released and can no longer be used
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrClosed       = errors.New("closed")
)
