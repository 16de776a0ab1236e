package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyDecided    = errors.New("already decided")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingReason     = errors.New("rejection reason is required")
	ErrMissingSchedule   = errors.New("approval requires a valid schedule")
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrCapacityExceeded  = errors.New("promotion capacity exceeded")
	ErrUnauthorized      = errors.New("unauthorized")

	ErrInvalidInput = errors.New("invalid input")
	ErrInactiveType = errors.New("promotion type is inactive")
	ErrDuplicate    = errors.New("already exists")
)
