package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldvault/vaultd/internal/domain"
)

// OAuthLinkStore persists OAuthLink rows, unique on (provider, provider_account_id).
type OAuthLinkStore struct {
	pool *pgxpool.Pool
}

func NewOAuthLinkStore(pool *pgxpool.Pool) *OAuthLinkStore {
	return &OAuthLinkStore{pool: pool}
}

func (s *OAuthLinkStore) FindByProvider(ctx context.Context, provider, providerAccountID string) (*domain.OAuthLink, error) {
	const q = `
		SELECT id, account_id, provider, provider_account_id, access_token, refresh_token, created_at
		FROM oauth_links WHERE provider = $1 AND provider_account_id = $2`

	var l domain.OAuthLink
	err := s.pool.QueryRow(ctx, q, provider, providerAccountID).
		Scan(&l.ID, &l.AccountID, &l.Provider, &l.ProviderAccountID, &l.AccessToken, &l.RefreshToken, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: find oauth link: %w", err)
	}
	return &l, nil
}

func (s *OAuthLinkStore) Create(ctx context.Context, l *domain.OAuthLink) error {
	const q = `
		INSERT INTO oauth_links (account_id, provider, provider_account_id, access_token, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, q, l.AccountID, l.Provider, l.ProviderAccountID, l.AccessToken, l.RefreshToken).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.KindConflict, "oauth identity already linked", err)
		}
		return fmt.Errorf("postgres: create oauth link: %w", err)
	}
	return nil
}

func (s *OAuthLinkStore) UpdateTokens(ctx context.Context, id string, accessToken, refreshToken *string) error {
	const q = `UPDATE oauth_links SET access_token = $2, refresh_token = $3 WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, id, accessToken, refreshToken)
	if err != nil {
		return fmt.Errorf("postgres: update oauth tokens: %w", err)
	}
	return nil
}
