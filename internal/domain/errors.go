// Package domain holds the entities and error taxonomy shared by every
// service package: identity, vault, organization, sharing and audit.
package domain

import "errors"

// Kind classifies a service-layer error into the taxonomy the HTTP surface
// maps to a status code. Kind values are stable across the whole API and
// never carry implementation detail — see (Error).Error for the
// caller-facing message.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindRateLimited    Kind = "rate_limited"
	KindCrypto         Kind = "crypto_error"
	KindInternal       Kind = "internal"
)

// Error is the opaque service-layer error type every package in this module
// returns instead of raw driver/library errors. The HTTP surface maps Kind to
// a status code and never forwards Unwrap()'s chain to the client.
type Error struct {
	Kind    Kind
	Message string
	// Code is an optional machine-readable sub-code, e.g. "TOKEN_EXPIRED"
	// distinguishing an expired bearer credential from a merely invalid one.
	Code string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Message + ": " + e.err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// NewError builds an Error of the given kind wrapping an optional cause.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, err: cause}
}

// NewCodedError builds an Error carrying a machine-readable sub-code.
func NewCodedError(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Code: code, err: cause}
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err is
// not one of this package's Error values.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf extracts the machine-readable sub-code from err, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var (
	ErrEmailTaken          = NewError(KindConflict, "an account with this email already exists", nil)
	ErrInvalidCredentials  = NewError(KindUnauthenticated, "invalid email or password", nil)
	ErrAccountNotFound     = NewError(KindNotFound, "account not found", nil)
	ErrAccountNoSecret     = NewError(KindValidation, "account has no password set", nil)
	ErrTokenInvalid        = NewCodedError(KindUnauthenticated, "TOKEN_INVALID", "bearer credential invalid", nil)
	ErrTokenExpired        = NewCodedError(KindUnauthenticated, "TOKEN_EXPIRED", "bearer credential expired", nil)
	ErrRefreshInvalid      = NewError(KindUnauthenticated, "refresh credential invalid or revoked", nil)
	ErrUnauthenticated     = NewError(KindUnauthenticated, "authentication required", nil)
	ErrForbidden           = NewError(KindForbidden, "not permitted", nil)
	ErrEntryNotFound       = NewError(KindNotFound, "vault entry not found", nil)
	ErrCollectionNotFound  = NewError(KindNotFound, "collection not found", nil)
	ErrTagNotFound         = NewError(KindNotFound, "tag not found", nil)
	ErrShareNotFound       = NewError(KindNotFound, "share not found", nil)
	ErrRateLimited         = NewError(KindRateLimited, "too many requests", nil)
	ErrCrypto              = NewError(KindCrypto, "cryptographic operation failed", nil)
	ErrInternal            = NewError(KindInternal, "internal error", nil)
)
