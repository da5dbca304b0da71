package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrForbidden          = errors.New("not authorized")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Request lifecycle
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSchedulingFailed  = errors.New("could not schedule background processing")
	ErrEmptyTranscript   = errors.New("transcript is empty")
	ErrInvalidEvaluation = errors.New("review output does not match the evaluation schema")
	ErrUpstream          = errors.New("upstream provider failure")

	// Storage
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
