// Package refreshtoken mints and fingerprints the long-lived, opaque
// refresh credential carried in the refresh cookie (§4.3, §6). The raw
// value is only ever handed to the caller once, at issuance; everywhere
// else only its fingerprint travels.
package refreshtoken

import (
	"time"

	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/vaultcrypto"
)

// Issued is a freshly minted refresh credential: the raw value to place in
// the cookie, and the fingerprint to persist.
type Issued struct {
	Raw         string
	Fingerprint string
	ExpiresAt   time.Time
}

// Service mints refresh credentials with a fixed TTL.
type Service struct {
	ttl time.Duration
}

// NewService builds a refresh token service with the given lifetime.
func NewService(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{ttl: ttl}
}

// Issue mints a new raw token and its fingerprint.
func (s *Service) Issue() (Issued, error) {
	raw, err := vaultcrypto.RandomOpaqueToken()
	if err != nil {
		return Issued{}, domain.NewError(domain.KindCrypto, "refreshtoken: failed to generate token", err)
	}
	return Issued{
		Raw:         raw,
		Fingerprint: vaultcrypto.Fingerprint(raw),
		ExpiresAt:   time.Now().Add(s.ttl),
	}, nil
}

// Fingerprint hashes a raw refresh token for lookup.
func (s *Service) Fingerprint(raw string) string {
	return vaultcrypto.Fingerprint(raw)
}
