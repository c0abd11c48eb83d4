package store

import (
	"errors"
)

// Failure taxonomy shared by every repository. Repositories normalize
// transport and backend faults into exactly one of these families; callers
// classify with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrUnknown    = errors.New("unknown error")
)
