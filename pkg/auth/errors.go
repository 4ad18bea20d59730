package auth

import "errors"

// OAuth-specific errors returned by the provider adapters.
var (
	ErrInvalidCode    = errors.New("invalid OAuth code")
	ErrNoPrimaryEmail = errors.New("no primary email from provider")
)
