package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldvault/vaultd/internal/domain"
)

// VaultEntryStore persists VaultEntry rows. Every query that reaches a row
// predicates on (id, account_id); there is no fetch-then-check path.
type VaultEntryStore struct {
	pool *pgxpool.Pool
}

func NewVaultEntryStore(pool *pgxpool.Pool) *VaultEntryStore {
	return &VaultEntryStore{pool: pool}
}

const entryColumns = `
	id, account_id, title, username, site, notes,
	secret_ciphertext, secret_iv, secret_auth_tag,
	collection_id, is_favourite, is_pinned, strength, last_used_at,
	created_at, updated_at`

const entryColumnsQualified = `
	e.id, e.account_id, e.title, e.username, e.site, e.notes,
	e.secret_ciphertext, e.secret_iv, e.secret_auth_tag,
	e.collection_id, e.is_favourite, e.is_pinned, e.strength, e.last_used_at,
	e.created_at, e.updated_at`

func scanEntry(row pgx.Row) (*domain.VaultEntry, error) {
	var e domain.VaultEntry
	err := row.Scan(
		&e.ID, &e.AccountID, &e.Title, &e.Username, &e.Site, &e.Notes,
		&e.SecretCiphertext, &e.SecretIV, &e.SecretAuthTag,
		&e.CollectionID, &e.IsFavourite, &e.IsPinned, &e.Strength, &e.LastUsedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return &e, err
}

func (s *VaultEntryStore) Create(ctx context.Context, e *domain.VaultEntry) error {
	q := fmt.Sprintf(`
		INSERT INTO vault_entries (
			account_id, title, username, site, notes,
			secret_ciphertext, secret_iv, secret_auth_tag,
			collection_id, is_favourite, is_pinned, strength
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING %s`, entryColumns)

	row := s.pool.QueryRow(ctx, q,
		e.AccountID, e.Title, e.Username, e.Site, e.Notes,
		e.SecretCiphertext, e.SecretIV, e.SecretAuthTag,
		e.CollectionID, e.IsFavourite, e.IsPinned, e.Strength,
	)
	result, err := scanEntry(row)
	if err != nil {
		return fmt.Errorf("postgres: create vault entry: %w", err)
	}
	*e = *result
	return nil
}

func (s *VaultEntryStore) Get(ctx context.Context, id, accountID string) (*domain.VaultEntry, error) {
	q := fmt.Sprintf(`SELECT %s FROM vault_entries WHERE id = $1 AND account_id = $2`, entryColumns)
	e, err := scanEntry(s.pool.QueryRow(ctx, q, id, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("postgres: get vault entry: %w", err)
	}
	return e, nil
}

// ListFilter narrows a List call to any combination of a free-text query,
// collection, tags (any-match), favourite/pinned state, and a strength
// range; zero values mean "no filter" on that dimension, and every
// dimension present is ANDed together in the same query.
type ListFilter struct {
	Query         string
	CollectionID  string
	TagIDs        []string
	FavouriteOnly bool
	PinnedOnly    bool
	StrengthMin   *int
	StrengthMax   *int
}

func (s *VaultEntryStore) List(ctx context.Context, accountID string, f ListFilter) ([]*domain.VaultEntry, error) {
	where := []string{"e.account_id = $1"}
	args := []any{accountID}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(e.title ILIKE $%d OR e.username ILIKE $%d OR e.site ILIKE $%d OR e.notes ILIKE $%d)", n, n, n, n))
	}
	if f.CollectionID != "" {
		args = append(args, f.CollectionID)
		where = append(where, fmt.Sprintf("e.collection_id = $%d", len(args)))
	}
	if len(f.TagIDs) > 0 {
		args = append(args, f.TagIDs)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM vault_entry_tags vet WHERE vet.entry_id = e.id AND vet.tag_id = ANY($%d))", len(args)))
	}
	if f.FavouriteOnly {
		where = append(where, "e.is_favourite = true")
	}
	if f.PinnedOnly {
		where = append(where, "e.is_pinned = true")
	}
	if f.StrengthMin != nil {
		args = append(args, *f.StrengthMin)
		where = append(where, fmt.Sprintf("e.strength >= $%d", len(args)))
	}
	if f.StrengthMax != nil {
		args = append(args, *f.StrengthMax)
		where = append(where, fmt.Sprintf("e.strength <= $%d", len(args)))
	}

	q := fmt.Sprintf(`
		SELECT %s FROM vault_entries e
		WHERE %s
		ORDER BY e.is_pinned DESC, e.updated_at DESC`,
		entryColumnsQualified, strings.Join(where, " AND "))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list vault entries: %w", err)
	}
	defer rows.Close()

	var out []*domain.VaultEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan vault entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *VaultEntryStore) Update(ctx context.Context, e *domain.VaultEntry) error {
	q := fmt.Sprintf(`
		UPDATE vault_entries SET
			title = $3, username = $4, site = $5, notes = $6,
			secret_ciphertext = $7, secret_iv = $8, secret_auth_tag = $9,
			collection_id = $10, is_favourite = $11, is_pinned = $12, strength = $13,
			updated_at = now()
		WHERE id = $1 AND account_id = $2
		RETURNING %s`, entryColumns)

	row := s.pool.QueryRow(ctx, q,
		e.ID, e.AccountID, e.Title, e.Username, e.Site, e.Notes,
		e.SecretCiphertext, e.SecretIV, e.SecretAuthTag,
		e.CollectionID, e.IsFavourite, e.IsPinned, e.Strength,
	)
	result, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEntryNotFound
		}
		return fmt.Errorf("postgres: update vault entry: %w", err)
	}
	*e = *result
	return nil
}

// SetCollection reassigns an owned entry to targetCollectionID, or clears
// it to uncategorised when nil (the organize package's "null collection"
// sentinel, §4.6).
func (s *VaultEntryStore) SetCollection(ctx context.Context, id, accountID string, targetCollectionID *string) error {
	const q = `UPDATE vault_entries SET collection_id = $3, updated_at = now() WHERE id = $1 AND account_id = $2`
	tag, err := s.pool.Exec(ctx, q, id, accountID, targetCollectionID)
	if err != nil {
		return fmt.Errorf("postgres: set entry collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (s *VaultEntryStore) TouchLastUsed(ctx context.Context, id, accountID string) error {
	const q = `UPDATE vault_entries SET last_used_at = now() WHERE id = $1 AND account_id = $2`
	tag, err := s.pool.Exec(ctx, q, id, accountID)
	if err != nil {
		return fmt.Errorf("postgres: touch last used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (s *VaultEntryStore) Delete(ctx context.Context, id, accountID string) error {
	const q = `DELETE FROM vault_entries WHERE id = $1 AND account_id = $2`
	tag, err := s.pool.Exec(ctx, q, id, accountID)
	if err != nil {
		return fmt.Errorf("postgres: delete vault entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// ListAllForExport returns every entry for an account, used by the export
// operation (§ SUPPLEMENTED FEATURES). No pagination: exports are
// account-scoped and bounded by what one account can hold.
func (s *VaultEntryStore) ListAllForExport(ctx context.Context, accountID string) ([]*domain.VaultEntry, error) {
	return s.List(ctx, accountID, ListFilter{})
}
