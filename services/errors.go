package services

import "errors"

// Sentinel errors returned by the booking engine and chat service. Handlers
// map these to HTTP status codes; anything else is treated as a 500.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("actor is not authorized for this operation")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
	ErrAlreadyTerminal    = errors.New("booking is already in a terminal state")
	ErrVehicleUnavailable = errors.New("vehicle is not available")
	ErrInvalidDates       = errors.New("return date must be after pickup date")
	ErrEmptyMessage       = errors.New("message body must not be empty")
	ErrAlreadyCompleted   = errors.New("booking is already completed and can no longer be cancelled")
	ErrAlreadyActive      = errors.New("booking is already active and can no longer be cancelled")
)
