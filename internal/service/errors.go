package service

import "errors"

// Business-rule failures surfaced to the transport layer with a stable kind.
// Infrastructure failures (store, mail) are wrapped and returned as-is.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrResetCodeInvalid   = errors.New("invalid or expired verification code")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)
