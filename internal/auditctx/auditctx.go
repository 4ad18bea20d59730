// Package auditctx carries the acting account's identity on a
// context.Context so pkg/audit's context-extractor hooks can populate
// Event.UserID without every call site threading it through an
// EventOption explicitly.
package auditctx

import "context"

type accountIDKey struct{}

// WithAccountID returns a context carrying accountID for audit extraction.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey{}, accountID)
}

// AccountID implements pkg/audit's contextExtractor signature.
func AccountID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountIDKey{}).(string)
	return v, ok && v != ""
}
