// Package httpapi is the JSON HTTP surface over every service package:
// auth, the vault engine, organization, sharing and audit. It binds
// requests with the root binder package, maps domain.Error to a status
// code and a compact body, and carries the refresh credential in an
// HTTP-only cookie rather than the JSON payload.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shieldvault/vaultd/internal/domain"
)

// errorBody is the JSON shape every non-2xx response carries.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// fieldErrorBody is returned instead of errorBody when a request fails
// field-level validation (§7): a list of {field, message} pairs.
type fieldErrorBody struct {
	Errors []FieldError `json:"errors"`
}

// FieldError names one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeValidationErrors answers a 400 carrying field-level detail, per the
// external-interface contract for request validation failures.
func writeValidationErrors(w http.ResponseWriter, errs []FieldError) {
	writeJSON(w, http.StatusBadRequest, fieldErrorBody{Errors: errs})
}

// statusForKind maps a domain.Kind to the HTTP status the error-handling
// design assigns it.
func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindCrypto, domain.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a service-layer error into its HTTP response. A
// cryptographic or internal failure never leaks its cause to the client —
// only a generic message does, while the real error is logged server-side.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)
	code := domain.CodeOf(err)

	message := err.Error()
	if kind == domain.KindCrypto || kind == domain.KindInternal {
		var derr *domain.Error
		if errors.As(err, &derr) {
			logger.ErrorContext(r.Context(), "internal error", slog.String("path", r.URL.Path), slog.Any("error", derr.Unwrap()))
		} else {
			logger.ErrorContext(r.Context(), "internal error", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		message = "an internal error occurred"
	}

	writeJSON(w, status, errorBody{Error: message, Code: code})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message})
}
