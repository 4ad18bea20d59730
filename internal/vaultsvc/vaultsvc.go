// Package vaultsvc implements C5, the vault engine: CRUD, search/filter,
// health analysis, export and best-effort import over an account's
// encrypted credential entries. Every operation unwraps the caller's
// per-account key for the duration of the call and never persists the
// unwrapped form, per §4.1/§4.5.
package vaultsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/shieldvault/vaultd/internal/auditctx"
	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/searchindex"
	"github.com/shieldvault/vaultd/internal/store/postgres"
	"github.com/shieldvault/vaultd/internal/vaultcrypto"
	"github.com/shieldvault/vaultd/pkg/audit"
)

// AccountKeyStore is the subset of the account repository this service
// needs to materialize a caller's decryption key.
type AccountKeyStore interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// EntryListFilter is an alias of the store layer's filter shape, kept
// under this name so callers of this package don't need to import the
// store package just to build a filter value.
type EntryListFilter = postgres.ListFilter

// EntryStore is the subset of the Postgres vault-entry repository this
// service depends on.
type EntryStore interface {
	Create(ctx context.Context, e *domain.VaultEntry) error
	Get(ctx context.Context, id, accountID string) (*domain.VaultEntry, error)
	List(ctx context.Context, accountID string, f EntryListFilter) ([]*domain.VaultEntry, error)
	Update(ctx context.Context, e *domain.VaultEntry) error
	TouchLastUsed(ctx context.Context, id, accountID string) error
	Delete(ctx context.Context, id, accountID string) error
	ListAllForExport(ctx context.Context, accountID string) ([]*domain.VaultEntry, error)
}

// SearchIndex is the best-effort secondary index (internal/searchindex).
// Any nil implementation or method error is always survivable.
type SearchIndex = searchindex.Index

// ExportBackup persists a point-in-time export blob off-band (S3). Best
// effort: failures are logged, never surfaced to the caller.
type ExportBackup interface {
	Store(ctx context.Context, accountID string, at time.Time, payload []byte) error
}

// CreateInput is the caller-supplied shape for a new entry.
type CreateInput struct {
	Title        string
	Username     *string
	Site         *string
	Notes        *string
	Secret       string
	CollectionID *string
}

// UpdatePatch is a partial update; nil fields are left unchanged. Secret is
// a pointer so "no change" can be distinguished from "set to empty".
type UpdatePatch struct {
	Title        *string
	Username     **string
	Site         **string
	Notes        **string
	Secret       *string
	CollectionID **string
	IsFavourite  *bool
	IsPinned     *bool
}

// Service implements C5.
type Service struct {
	accounts  AccountKeyStore
	entries   EntryStore
	masterKey []byte
	index     SearchIndex
	backup    ExportBackup
	auditor   audit.Logger
	logger    *slog.Logger
}

// Option configures a Service during construction.
type Option func(*Service)

// WithSearchIndex wires the best-effort OpenSearch accelerator.
func WithSearchIndex(idx SearchIndex) Option {
	return func(s *Service) { s.index = idx }
}

// WithExportBackup wires the best-effort S3 export-backup uploader.
func WithExportBackup(b ExportBackup) Option {
	return func(s *Service) { s.backup = b }
}

// WithAuditor wires audit logging. Omitting it disables auditing.
func WithAuditor(a audit.Logger) Option {
	return func(s *Service) { s.auditor = a }
}

// WithLogger overrides the service's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New constructs a vault engine service. masterKey is the 32-byte key
// wrapping every account's per-account key (§4.1).
func New(accounts AccountKeyStore, entries EntryStore, masterKey []byte, opts ...Option) *Service {
	s := &Service{accounts: accounts, entries: entries, masterKey: masterKey, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) audit(ctx context.Context, action domain.AuditAction, accountID, entryID, entryTitle string, extra ...audit.EventOption) {
	if s.auditor == nil {
		return
	}
	ctx = auditctx.WithAccountID(ctx, accountID)
	opts := []audit.EventOption{}
	if entryID != "" {
		opts = append(opts, audit.WithResource("vault_entry", entryID))
	}
	if entryTitle != "" {
		opts = append(opts, audit.WithMetadata("entry_title", entryTitle))
	}
	opts = append(opts, extra...)
	if err := s.auditor.Log(ctx, string(action), opts...); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit record",
			slog.String("action", string(action)), slog.String("account_id", accountID), slog.Any("error", err))
	}
}

func (s *Service) userKey(ctx context.Context, accountID string) ([]byte, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(acct.WrappedKey) == 0 {
		return nil, domain.NewError(domain.KindCrypto, "account has no vault key materialised yet", nil)
	}
	return vaultcrypto.Unwrap(acct.WrappedKey, s.masterKey)
}

func (s *Service) syncIndex(ctx context.Context, e *domain.VaultEntry) {
	if s.index == nil {
		return
	}
	doc := searchindex.Document{ID: e.ID, AccountID: e.AccountID, Title: e.Title}
	if e.Username != nil {
		doc.Username = *e.Username
	}
	if e.Site != nil {
		doc.Site = *e.Site
	}
	if err := s.index.Upsert(ctx, doc); err != nil {
		s.logger.WarnContext(ctx, "search index upsert failed", slog.String("entry_id", e.ID), slog.Any("error", err))
	}
}

func (s *Service) removeFromIndex(ctx context.Context, entryID string) {
	if s.index == nil {
		return
	}
	if err := s.index.Delete(ctx, entryID); err != nil {
		s.logger.WarnContext(ctx, "search index delete failed", slog.String("entry_id", entryID), slog.Any("error", err))
	}
}

// Create implements create(input).
func (s *Service) Create(ctx context.Context, accountID string, in CreateInput) (*domain.VaultEntry, error) {
	key, err := s.userKey(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, tag, err := vaultcrypto.EncryptField([]byte(in.Secret), key)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "failed to encrypt secret", err)
	}
	strength := domain.StrengthScore(in.Secret)

	e := &domain.VaultEntry{
		AccountID:        accountID,
		Title:            in.Title,
		Username:         in.Username,
		Site:             in.Site,
		Notes:            in.Notes,
		SecretCiphertext: ciphertext,
		SecretIV:         nonce,
		SecretAuthTag:    tag,
		CollectionID:     in.CollectionID,
		Strength:         &strength,
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}

	s.syncIndex(ctx, e)
	s.audit(ctx, domain.AuditCreate, accountID, e.ID, e.Title)
	return e, nil
}

// List implements list(filter): query, collectionId, tagIds (any-match),
// isFavourite, isPinned and the strength range are all combinable in one
// call. The returned entries never carry the secret field.
func (s *Service) List(ctx context.Context, accountID string, filter EntryListFilter) ([]*domain.VaultEntry, error) {
	entries, err := s.entries.List(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.SecretCiphertext, e.SecretIV, e.SecretAuthTag = nil, nil, nil
	}
	return entries, nil
}

// Get implements get(id): decrypts the secret, touches lastUsedAt, writes
// a reveal audit.
func (s *Service) Get(ctx context.Context, accountID, id string) (*domain.VaultEntry, string, error) {
	e, err := s.entries.Get(ctx, id, accountID)
	if err != nil {
		return nil, "", err
	}

	key, err := s.userKey(ctx, accountID)
	if err != nil {
		return nil, "", err
	}
	plaintext, err := vaultcrypto.DecryptField(e.SecretCiphertext, e.SecretIV, e.SecretAuthTag, key)
	if err != nil {
		return nil, "", domain.NewError(domain.KindCrypto, "failed to decrypt secret", err)
	}

	if err := s.entries.TouchLastUsed(ctx, id, accountID); err != nil {
		return nil, "", err
	}
	s.audit(ctx, domain.AuditReveal, accountID, e.ID, e.Title)
	return e, string(plaintext), nil
}

// Update implements update(id, patch). When Secret is set, the three
// ciphertext components are rewritten together with a fresh nonce and
// strength is recomputed.
func (s *Service) Update(ctx context.Context, accountID, id string, patch UpdatePatch) (*domain.VaultEntry, error) {
	e, err := s.entries.Get(ctx, id, accountID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Username != nil {
		e.Username = *patch.Username
	}
	if patch.Site != nil {
		e.Site = *patch.Site
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}
	if patch.CollectionID != nil {
		e.CollectionID = *patch.CollectionID
	}
	if patch.IsFavourite != nil {
		e.IsFavourite = *patch.IsFavourite
	}
	if patch.IsPinned != nil {
		e.IsPinned = *patch.IsPinned
	}
	if patch.Secret != nil {
		key, err := s.userKey(ctx, accountID)
		if err != nil {
			return nil, err
		}
		ciphertext, nonce, tag, err := vaultcrypto.EncryptField([]byte(*patch.Secret), key)
		if err != nil {
			return nil, domain.NewError(domain.KindCrypto, "failed to encrypt secret", err)
		}
		e.SecretCiphertext, e.SecretIV, e.SecretAuthTag = ciphertext, nonce, tag
		strength := domain.StrengthScore(*patch.Secret)
		e.Strength = &strength
	}

	if err := s.entries.Update(ctx, e); err != nil {
		return nil, err
	}

	s.syncIndex(ctx, e)
	s.audit(ctx, domain.AuditUpdate, accountID, e.ID, e.Title)
	e.SecretCiphertext, e.SecretIV, e.SecretAuthTag = nil, nil, nil
	return e, nil
}

// Delete implements delete(id). Join rows (vault_entry_tags) cascade via
// the foreign key in the schema.
func (s *Service) Delete(ctx context.Context, accountID, id string) error {
	e, err := s.entries.Get(ctx, id, accountID)
	if err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, id, accountID); err != nil {
		return err
	}
	s.removeFromIndex(ctx, id)
	s.audit(ctx, domain.AuditDelete, accountID, e.ID, e.Title)
	return nil
}

// BulkDelete implements bulkDelete(ids), returning the count actually
// deleted.
func (s *Service) BulkDelete(ctx context.Context, accountID string, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if err := s.Delete(ctx, accountID, id); err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// ToggleFavourite implements the idempotent favourite flip.
func (s *Service) ToggleFavourite(ctx context.Context, accountID, id string) (*domain.VaultEntry, error) {
	e, err := s.entries.Get(ctx, id, accountID)
	if err != nil {
		return nil, err
	}
	flipped := !e.IsFavourite
	return s.Update(ctx, accountID, id, UpdatePatch{IsFavourite: &flipped})
}

// TogglePinned implements the idempotent pinned flip.
func (s *Service) TogglePinned(ctx context.Context, accountID, id string) (*domain.VaultEntry, error) {
	e, err := s.entries.Get(ctx, id, accountID)
	if err != nil {
		return nil, err
	}
	flipped := !e.IsPinned
	return s.Update(ctx, accountID, id, UpdatePatch{IsPinned: &flipped})
}
