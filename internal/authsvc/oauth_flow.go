package authsvc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/pkg/auth"
)

const oauthStateTTL = 10 * time.Minute

// OAuthFlow drives the redirect-based authorization-code exchange for one
// provider, using a ProviderAdapter (pkg/auth) for the mechanics and a
// StateStore for CSRF protection.
type OAuthFlow struct {
	svc     *Service
	states  *StateStore
	adapter auth.ProviderAdapter
}

// NewOAuthFlow wires a single provider's adapter into svc.
func NewOAuthFlow(svc *Service, states *StateStore, adapter auth.ProviderAdapter) *OAuthFlow {
	return &OAuthFlow{svc: svc, states: states, adapter: adapter}
}

// AuthURL mints a fresh CSRF state and returns the provider's authorization
// URL to redirect the caller to.
func (f *OAuthFlow) AuthURL(ctx context.Context) (string, error) {
	state, err := randomState()
	if err != nil {
		return "", domain.NewError(domain.KindCrypto, "failed to generate oauth state", err)
	}
	if err := f.states.Store(ctx, state, oauthStateTTL); err != nil {
		return "", domain.NewError(domain.KindInternal, "failed to persist oauth state", err)
	}
	url, err := f.adapter.AuthURL(state)
	if err != nil {
		return "", domain.NewError(domain.KindInternal, "failed to build authorization url", err)
	}
	return url, nil
}

// HandleCallback consumes the state token, exchanges code for a profile,
// and finds-or-links the resulting account.
func (f *OAuthFlow) HandleCallback(ctx context.Context, state, code string) (*domain.Account, *Tokens, error) {
	ok, err := f.states.Consume(ctx, state)
	if err != nil {
		return nil, nil, domain.NewError(domain.KindInternal, "failed to consume oauth state", err)
	}
	if !ok {
		return nil, nil, domain.NewError(domain.KindUnauthenticated, "oauth state invalid or already used", nil)
	}

	profile, err := f.adapter.ResolveProfile(ctx, code)
	if err != nil {
		return nil, nil, domain.NewError(domain.KindUnauthenticated, "failed to resolve oauth profile", err)
	}
	if profile.Email == "" {
		return nil, nil, domain.NewError(domain.KindValidation, "oauth provider did not return an email address", nil)
	}

	var displayName *string
	if profile.Name != "" {
		name := profile.Name
		displayName = &name
	}

	return f.svc.FindOrLinkOAuth(ctx, f.adapter.ProviderID(), profile.ProviderUserID, profile.Email, displayName)
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
