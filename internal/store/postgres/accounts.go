// Package postgres implements every store interface consumed by the
// service packages (authsvc, vaultsvc, organize, sharesvc, auditsvc) on top
// of jackc/pgx/v5 and pgxpool, the driver the teacher repo wires through
// pkg/pg. Every query that reaches a row owned by an account predicates
// directly on (id, account_id) rather than fetching by id and checking
// ownership afterwards.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldvault/vaultd/internal/domain"
)

// AccountStore persists Account rows.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore builds an AccountStore over an already-connected pool
// (built via pkg/pg.Connect).
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

func (s *AccountStore) Create(ctx context.Context, a *domain.Account) error {
	const q = `
		INSERT INTO accounts (email, credential_hash, display_name, wrapped_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := s.pool.QueryRow(ctx, q, a.Email, a.CredentialHash, a.DisplayName, a.WrappedKey).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.KindConflict, "email already registered", err)
		}
		return fmt.Errorf("postgres: create account: %w", err)
	}
	return nil
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const q = `
		SELECT id, email, credential_hash, display_name, wrapped_key, created_at, updated_at
		FROM accounts WHERE id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, q, id))
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `
		SELECT id, email, credential_hash, display_name, wrapped_key, created_at, updated_at
		FROM accounts WHERE email = $1`
	return s.scanOne(s.pool.QueryRow(ctx, q, email))
}

func (s *AccountStore) scanOne(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Email, &a.CredentialHash, &a.DisplayName, &a.WrappedKey, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres: scan account: %w", err)
	}
	return &a, nil
}

// SetWrappedKey persists the lazily-materialised per-account wrapped key
// (§4.1) alongside updated_at.
func (s *AccountStore) SetWrappedKey(ctx context.Context, accountID string, wrapped []byte) error {
	const q = `UPDATE accounts SET wrapped_key = $2, updated_at = now() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, accountID, wrapped)
	if err != nil {
		return fmt.Errorf("postgres: set wrapped key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *AccountStore) UpdateCredential(ctx context.Context, accountID string, credentialHash string) error {
	const q = `UPDATE accounts SET credential_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, accountID, credentialHash)
	if err != nil {
		return fmt.Errorf("postgres: update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *AccountStore) UpdateDisplayName(ctx context.Context, accountID string, name *string) error {
	const q = `UPDATE accounts SET display_name = $2, updated_at = now() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, accountID, name)
	if err != nil {
		return fmt.Errorf("postgres: update display name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), without importing pgconn directly in every caller.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
