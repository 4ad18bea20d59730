// Package auth provides OAuth 2.0 provider adapters used to resolve a
// signed-in account's profile from Google or GitHub during login or
// account linking.
//
// The package centers on the ProviderAdapter interface: each provider
// implements AuthURL (build the provider's consent-screen redirect) and
// ResolveProfile (exchange an authorization code for a ProviderProfile —
// the provider user ID, email, verification state, name, and avatar).
// internal/authsvc drives the rest of the OAuth flow (CSRF state,
// account linking, session issuance) against these adapters; this
// package never touches application accounts directly.
//
// # Usage
//
//	googleConfig := auth.GoogleOAuthConfig{
//		ClientID:     "your-google-client-id",
//		ClientSecret: "your-google-client-secret",
//		RedirectURL:  "https://yourapp.com/api/auth/oauth/google/callback",
//		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
//		StateTTL:     10 * time.Minute,
//		VerifiedOnly: true,
//	}
//	adapter := auth.NewGoogleAdapter(googleConfig)
//
//	authURL, err := adapter.AuthURL(state)
//	// redirect the user to authURL
//
//	profile, err := adapter.ResolveProfile(ctx, code)
//	// profile.Email, profile.EmailVerified, profile.Name, profile.AvatarURL
//
// GitHub works the same way via GitHubOAuthConfig and NewGitHubAdapter;
// GitHub additionally fetches the verified primary email separately
// since the profile endpoint alone doesn't always return one.
//
// # Provider Extension
//
// New providers implement ProviderAdapter directly:
//
//	type CustomOAuthAdapter struct{ config oauth2.Config }
//
//	func (a *CustomOAuthAdapter) ProviderID() string { return "custom-provider" }
//
//	func (a *CustomOAuthAdapter) AuthURL(state string) (string, error) {
//		return a.config.AuthCodeURL(state), nil
//	}
//
//	func (a *CustomOAuthAdapter) ResolveProfile(ctx context.Context, code string) (auth.ProviderProfile, error) {
//		// exchange code, fetch profile
//		return auth.ProviderProfile{
//			ProviderUserID: "provider-user-id",
//			Email:          "user@example.com",
//			EmailVerified:  true,
//			Name:           "User Name",
//			AvatarURL:      "https://provider.com/avatar.jpg",
//		}, nil
//	}
//
// # Dependencies
//
//   - golang.org/x/oauth2, golang.org/x/oauth2/google for the OAuth 2.0
//     token exchange
//   - net/http for GitHub's REST profile/email endpoints
package auth
