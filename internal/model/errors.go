package model

import "errors"

// Errors returned by every store backend and by the identity service.
var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateEmail        = errors.New("email already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)
