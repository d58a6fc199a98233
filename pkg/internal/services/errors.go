package services

import "errors"

// Domain failure taxonomy. Callers branch with errors.Is; the HTTP layer
// maps each base error to a status code and the live-event layer reports
// them to the offending connection only.
var (
	ErrValidation    = errors.New("validation failed")
	ErrAuthorization = errors.New("not allowed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrState         = errors.New("invalid state")
)
