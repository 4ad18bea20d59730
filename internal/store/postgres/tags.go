package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldvault/vaultd/internal/domain"
)

// TagStore persists Tag rows, unique on (account_id, name).
type TagStore struct {
	pool *pgxpool.Pool
}

func NewTagStore(pool *pgxpool.Pool) *TagStore {
	return &TagStore{pool: pool}
}

func (s *TagStore) GetOrCreate(ctx context.Context, accountID, name string) (*domain.Tag, error) {
	const insertQ = `
		INSERT INTO tags (account_id, name) VALUES ($1, $2)
		ON CONFLICT (account_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, account_id, name, created_at`

	var t domain.Tag
	err := s.pool.QueryRow(ctx, insertQ, accountID, name).
		Scan(&t.ID, &t.AccountID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: get or create tag: %w", err)
	}
	return &t, nil
}

func (s *TagStore) Get(ctx context.Context, id, accountID string) (*domain.Tag, error) {
	const q = `SELECT id, account_id, name, created_at FROM tags WHERE id = $1 AND account_id = $2`
	var t domain.Tag
	err := s.pool.QueryRow(ctx, q, id, accountID).Scan(&t.ID, &t.AccountID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTagNotFound
		}
		return nil, fmt.Errorf("postgres: get tag: %w", err)
	}
	return &t, nil
}

func (s *TagStore) List(ctx context.Context, accountID string) ([]*domain.Tag, error) {
	const q = `SELECT id, account_id, name, created_at FROM tags WHERE account_id = $1 ORDER BY name ASC`
	rows, err := s.pool.Query(ctx, q, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tags: %w", err)
	}
	defer rows.Close()

	var out []*domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan tag: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *TagStore) Delete(ctx context.Context, id, accountID string) error {
	const q = `DELETE FROM tags WHERE id = $1 AND account_id = $2`
	tag, err := s.pool.Exec(ctx, q, id, accountID)
	if err != nil {
		return fmt.Errorf("postgres: delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTagNotFound
	}
	return nil
}

// ListForEntry returns the tags attached to a vault entry.
func (s *TagStore) ListForEntry(ctx context.Context, entryID string) ([]*domain.Tag, error) {
	const q = `
		SELECT t.id, t.account_id, t.name, t.created_at
		FROM tags t
		JOIN vault_entry_tags vet ON vet.tag_id = t.id
		WHERE vet.entry_id = $1
		ORDER BY t.name ASC`

	rows, err := s.pool.Query(ctx, q, entryID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tags for entry: %w", err)
	}
	defer rows.Close()

	var out []*domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan tag: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// SetEntryTags replaces the full tag set for an entry in one transaction.
func (s *TagStore) SetEntryTags(ctx context.Context, entryID string, tagIDs []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin set entry tags: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM vault_entry_tags WHERE entry_id = $1`, entryID); err != nil {
		return fmt.Errorf("postgres: clear entry tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO vault_entry_tags (entry_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, entryID, tagID); err != nil {
			return fmt.Errorf("postgres: insert entry tag: %w", err)
		}
	}
	return tx.Commit(ctx)
}
