package httpapi

import (
	"context"

	"github.com/shieldvault/vaultd/pkg/clientip"
	"github.com/shieldvault/vaultd/pkg/useragent"
)

// principal is the identity a verified bearer credential attaches to a
// request's context.
type principal struct {
	AccountID string
	Email     string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok
}

type userAgentKey struct{}

func withUserAgent(ctx context.Context, ua useragent.UserAgent) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

func userAgentFromContext(ctx context.Context) (useragent.UserAgent, bool) {
	ua, ok := ctx.Value(userAgentKey{}).(useragent.UserAgent)
	return ua, ok
}

// IPExtractor and UserAgentExtractor adapt annotateRequest's context
// values to pkg/audit's contextExtractor signature, for wiring with
// audit.WithIPExtractor / audit.WithUserAgentExtractor at construction
// time (cmd/server).
func IPExtractor(ctx context.Context) (string, bool) {
	ip := clientip.GetIPFromContext(ctx)
	return ip, ip != ""
}

func UserAgentExtractor(ctx context.Context) (string, bool) {
	ua, ok := userAgentFromContext(ctx)
	if !ok {
		return "", false
	}
	return ua.String(), true
}
