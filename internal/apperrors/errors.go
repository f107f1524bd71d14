package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrNoCase   = errors.New("no case has been created")
)
