package models

import "errors"

var (
	ErrInvalidCoordinate    = errors.New("invalid coordinate")
	ErrRiderNotFound        = errors.New("rider not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrZoneNotFound         = errors.New("zone not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrNoCandidateAvailable = errors.New("no candidate available")
	// ErrClaimConflict never leaves the assignment coordinator.
	ErrClaimConflict = errors.New("rider already claimed")
)
