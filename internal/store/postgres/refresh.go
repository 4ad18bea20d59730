package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldvault/vaultd/internal/domain"
)

// RefreshRecordStore persists refresh-credential fingerprints. The raw
// token value is never available past issuance and is never stored here.
type RefreshRecordStore struct {
	pool *pgxpool.Pool
}

func NewRefreshRecordStore(pool *pgxpool.Pool) *RefreshRecordStore {
	return &RefreshRecordStore{pool: pool}
}

func (s *RefreshRecordStore) Create(ctx context.Context, r *domain.RefreshRecord) error {
	const q = `
		INSERT INTO refresh_records (account_id, token_fingerprint, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, q, r.AccountID, r.TokenFingerprint, r.ExpiresAt).
		Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create refresh record: %w", err)
	}
	return nil
}

func (s *RefreshRecordStore) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.RefreshRecord, error) {
	const q = `
		SELECT id, account_id, token_fingerprint, revoked, expires_at, created_at
		FROM refresh_records WHERE token_fingerprint = $1`

	var r domain.RefreshRecord
	err := s.pool.QueryRow(ctx, q, fingerprint).
		Scan(&r.ID, &r.AccountID, &r.TokenFingerprint, &r.Revoked, &r.ExpiresAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRefreshInvalid
		}
		return nil, fmt.Errorf("postgres: find refresh record: %w", err)
	}
	return &r, nil
}

// Revoke marks a single refresh record revoked, predicated on the owning
// account so a caller can never revoke another account's credential.
func (s *RefreshRecordStore) Revoke(ctx context.Context, id, accountID string) error {
	const q = `UPDATE refresh_records SET revoked = true WHERE id = $1 AND account_id = $2`
	tag, err := s.pool.Exec(ctx, q, id, accountID)
	if err != nil {
		return fmt.Errorf("postgres: revoke refresh record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRefreshInvalid
	}
	return nil
}

// RevokeAllForAccount revokes every outstanding refresh record for an
// account, used on password change and full logout-everywhere.
func (s *RefreshRecordStore) RevokeAllForAccount(ctx context.Context, accountID string) error {
	const q = `UPDATE refresh_records SET revoked = true WHERE account_id = $1 AND revoked = false`
	_, err := s.pool.Exec(ctx, q, accountID)
	if err != nil {
		return fmt.Errorf("postgres: revoke all refresh records: %w", err)
	}
	return nil
}
