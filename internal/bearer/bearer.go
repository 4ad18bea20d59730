// Package bearer issues and verifies the short-lived signed bearer
// credential (§4.3) carrying an account's identity. It wraps pkg/jwt's
// HMAC-SHA256 Service with the claim shape and expiry semantics this API
// needs, distinguishing an expired credential (caller should refresh) from
// an otherwise invalid one (caller should re-authenticate).
package bearer

import (
	"errors"
	"time"

	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/pkg/jwt"
)

// Claims carries the identity encoded in a bearer credential.
type Claims struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email,omitempty"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

// Valid satisfies jwt.Service.Parse's optional validator hook.
func (c Claims) Valid() error {
	if time.Now().Unix() > c.ExpiresAt {
		return jwt.ErrExpiredToken
	}
	return nil
}

// Service issues and verifies bearer credentials.
type Service struct {
	jwt *jwt.Service
	ttl time.Duration
}

// NewService builds a bearer credential service signing with signingKey.
// ttl is the credential lifetime, ~15 minutes per §4.3.
func NewService(signingKey string, ttl time.Duration) (*Service, error) {
	svc, err := jwt.NewFromString(signingKey)
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "bearer: failed to init signing service", err)
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{jwt: svc, ttl: ttl}, nil
}

// Issue mints a bearer credential for accountID/email.
func (s *Service) Issue(accountID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		Email:     email,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}

	token, err := s.jwt.Generate(claims)
	if err != nil {
		return "", domain.NewError(domain.KindInternal, "bearer: failed to sign credential", err)
	}
	return token, nil
}

// Verify parses and validates a bearer credential, returning its claims.
// The returned error distinguishes expiry (domain.ErrTokenExpired) from any
// other invalidity (domain.ErrTokenInvalid).
func (s *Service) Verify(token string) (Claims, error) {
	var claims Claims
	if err := s.jwt.Parse(token, &claims); err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return Claims{}, domain.ErrTokenExpired
		}
		return Claims{}, domain.ErrTokenInvalid
	}
	return claims, nil
}
