package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldvault/vaultd/internal/domain"
)

// ShareCapabilityStore persists one-time/bounded-use share grants.
type ShareCapabilityStore struct {
	pool *pgxpool.Pool
}

func NewShareCapabilityStore(pool *pgxpool.Pool) *ShareCapabilityStore {
	return &ShareCapabilityStore{pool: pool}
}

const shareColumns = `
	id, entry_id, account_id, token_fingerprint, max_views, view_count,
	expires_at, accessed_at, accessor_address, include_secret, include_notes, created_at`

func scanShare(row pgx.Row) (*domain.ShareCapability, error) {
	var s domain.ShareCapability
	err := row.Scan(
		&s.ID, &s.EntryID, &s.AccountID, &s.TokenFingerprint, &s.MaxViews, &s.ViewCount,
		&s.ExpiresAt, &s.AccessedAt, &s.AccessorAddress, &s.IncludeSecret, &s.IncludeNotes, &s.CreatedAt,
	)
	return &s, err
}

func (s *ShareCapabilityStore) Create(ctx context.Context, sh *domain.ShareCapability) error {
	q := fmt.Sprintf(`
		INSERT INTO share_capabilities (
			entry_id, account_id, token_fingerprint, max_views, expires_at, include_secret, include_notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING %s`, shareColumns)

	row := s.pool.QueryRow(ctx, q, sh.EntryID, sh.AccountID, sh.TokenFingerprint, sh.MaxViews, sh.ExpiresAt, sh.IncludeSecret, sh.IncludeNotes)
	result, err := scanShare(row)
	if err != nil {
		return fmt.Errorf("postgres: create share: %w", err)
	}
	*sh = *result
	return nil
}

func (s *ShareCapabilityStore) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.ShareCapability, error) {
	q := fmt.Sprintf(`SELECT %s FROM share_capabilities WHERE token_fingerprint = $1`, shareColumns)
	sh, err := scanShare(s.pool.QueryRow(ctx, q, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShareNotFound
		}
		return nil, fmt.Errorf("postgres: find share: %w", err)
	}
	return sh, nil
}

func (s *ShareCapabilityStore) Get(ctx context.Context, id, accountID string) (*domain.ShareCapability, error) {
	q := fmt.Sprintf(`SELECT %s FROM share_capabilities WHERE id = $1 AND account_id = $2`, shareColumns)
	sh, err := scanShare(s.pool.QueryRow(ctx, q, id, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShareNotFound
		}
		return nil, fmt.Errorf("postgres: get share: %w", err)
	}
	return sh, nil
}

func (s *ShareCapabilityStore) ListForEntry(ctx context.Context, entryID, accountID string) ([]*domain.ShareCapability, error) {
	q := fmt.Sprintf(`SELECT %s FROM share_capabilities WHERE entry_id = $1 AND account_id = $2 ORDER BY created_at DESC`, shareColumns)
	rows, err := s.pool.Query(ctx, q, entryID, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list shares for entry: %w", err)
	}
	defer rows.Close()

	var out []*domain.ShareCapability
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan share: %w", err)
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// RecordAccess atomically increments view_count and stamps accessed_at and
// accessor_address, but only if the capability is still consumable — the
// optimistic check happens inside the UPDATE's WHERE clause so two
// concurrent viewers can't both succeed past max_views.
func (s *ShareCapabilityStore) RecordAccess(ctx context.Context, id string, accessorAddress *string) (*domain.ShareCapability, error) {
	q := fmt.Sprintf(`
		UPDATE share_capabilities
		SET view_count = view_count + 1, accessed_at = now(), accessor_address = $2
		WHERE id = $1 AND expires_at > now() AND view_count < max_views
		RETURNING %s`, shareColumns)

	row := s.pool.QueryRow(ctx, q, id, accessorAddress)
	sh, err := scanShare(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "share capability expired or exhausted", err)
		}
		return nil, fmt.Errorf("postgres: record share access: %w", err)
	}
	return sh, nil
}

func (s *ShareCapabilityStore) Revoke(ctx context.Context, id, accountID string) error {
	const q = `DELETE FROM share_capabilities WHERE id = $1 AND account_id = $2`
	tag, err := s.pool.Exec(ctx, q, id, accountID)
	if err != nil {
		return fmt.Errorf("postgres: revoke share: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrShareNotFound
	}
	return nil
}
