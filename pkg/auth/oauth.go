package auth

import (
	"context"
)

// Provider identifiers recognised by the built-in adapters.
const (
	OAuthProviderGoogle = "google"
	OAuthProviderGithub = "github"
)

// ProviderProfile is the normalized shape every ProviderAdapter resolves an
// authorization code into, independent of the provider's own API shape.
type ProviderProfile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// ProviderAdapter isolates provider-specific OAuth mechanics (authorization
// URL construction, code exchange, profile normalization) behind one
// interface so the core OAuth service stays provider-agnostic.
type ProviderAdapter interface {
	ProviderID() string
	AuthURL(state string) (string, error)
	ResolveProfile(ctx context.Context, code string) (ProviderProfile, error)
}
