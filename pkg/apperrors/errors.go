package apperrors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrLimitExceeded = errors.New("workspace analysis limit reached")
	ErrUnsafeInput   = errors.New("unsafe input")
)
