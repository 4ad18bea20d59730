package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldvault/vaultd/internal/domain"
)

// CollectionStore persists Collection rows, always predicated on the
// owning account_id.
type CollectionStore struct {
	pool *pgxpool.Pool
}

func NewCollectionStore(pool *pgxpool.Pool) *CollectionStore {
	return &CollectionStore{pool: pool}
}

func (s *CollectionStore) Create(ctx context.Context, c *domain.Collection) error {
	const q = `
		INSERT INTO collections (account_id, name, description, icon, color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := s.pool.QueryRow(ctx, q, c.AccountID, c.Name, c.Description, c.Icon, c.Color).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create collection: %w", err)
	}
	return nil
}

func (s *CollectionStore) Get(ctx context.Context, id, accountID string) (*domain.Collection, error) {
	const q = `
		SELECT id, account_id, name, description, icon, color, created_at, updated_at
		FROM collections WHERE id = $1 AND account_id = $2`

	var c domain.Collection
	err := s.pool.QueryRow(ctx, q, id, accountID).
		Scan(&c.ID, &c.AccountID, &c.Name, &c.Description, &c.Icon, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("postgres: get collection: %w", err)
	}
	return &c, nil
}

func (s *CollectionStore) List(ctx context.Context, accountID string) ([]*domain.Collection, error) {
	const q = `
		SELECT id, account_id, name, description, icon, color, created_at, updated_at
		FROM collections WHERE account_id = $1 ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, q, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list collections: %w", err)
	}
	defer rows.Close()

	var out []*domain.Collection
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Description, &c.Icon, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan collection: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *CollectionStore) Update(ctx context.Context, c *domain.Collection) error {
	const q = `
		UPDATE collections SET name = $3, description = $4, icon = $5, color = $6, updated_at = now()
		WHERE id = $1 AND account_id = $2
		RETURNING updated_at`

	err := s.pool.QueryRow(ctx, q, c.ID, c.AccountID, c.Name, c.Description, c.Icon, c.Color).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCollectionNotFound
		}
		return fmt.Errorf("postgres: update collection: %w", err)
	}
	return nil
}

func (s *CollectionStore) Delete(ctx context.Context, id, accountID string) error {
	const q = `DELETE FROM collections WHERE id = $1 AND account_id = $2`
	tag, err := s.pool.Exec(ctx, q, id, accountID)
	if err != nil {
		return fmt.Errorf("postgres: delete collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCollectionNotFound
	}
	return nil
}
