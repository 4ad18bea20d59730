// Package sharesvc implements C7: bounded-use, time-limited read
// capabilities over a single vault entry, generated by the owner and
// consumed anonymously.
package sharesvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/shieldvault/vaultd/internal/auditctx"
	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/vaultcrypto"
	"github.com/shieldvault/vaultd/pkg/audit"
	"github.com/shieldvault/vaultd/pkg/email"
)

const (
	defaultMaxViews       = 1
	defaultExpiresInHours = 24
)

// EntryStore is the subset of the vault-entry repository this service
// needs to load the entry a capability discloses.
type EntryStore interface {
	Get(ctx context.Context, id, accountID string) (*domain.VaultEntry, error)
}

// AccountStore resolves the issuing account's email for the best-effort
// access notification and its key for decrypting a disclosed secret.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// ShareStore is the subset of the Postgres share-capability repository
// this service depends on.
type ShareStore interface {
	Create(ctx context.Context, sh *domain.ShareCapability) error
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.ShareCapability, error)
	Get(ctx context.Context, id, accountID string) (*domain.ShareCapability, error)
	ListForEntry(ctx context.Context, entryID, accountID string) ([]*domain.ShareCapability, error)
	RecordAccess(ctx context.Context, id string, accessorAddress *string) (*domain.ShareCapability, error)
	Revoke(ctx context.Context, id, accountID string) error
}

// Notifier sends the best-effort "your shared credential was viewed"
// email. Nil disables notification entirely.
type Notifier = email.EmailSender

// CreateInput is the caller-supplied shape for createShare.
type CreateInput struct {
	MaxViews       int
	ExpiresInHours int
	IncludeSecret  bool
	IncludeNotes   bool
}

// Created is createShare's response: the raw token is present here only,
// never again once the capability is listed or fetched.
type Created struct {
	Capability *domain.ShareCapability
	RawToken   string
}

// Disclosure is the selectively-disclosed view returned by Access.
type Disclosure struct {
	Title    string
	Username *string
	Site     *string
	Secret   *string
	Notes    *string
}

// Service implements C7.
type Service struct {
	entries  EntryStore
	accounts AccountStore
	shares   ShareStore
	notifier Notifier

	masterKey []byte

	auditor audit.Logger
	logger  *slog.Logger
}

// Option configures a Service during construction.
type Option func(*Service)

// WithNotifier wires the best-effort access-notification email sender.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithAuditor wires audit logging. Omitting it disables auditing.
func WithAuditor(a audit.Logger) Option {
	return func(s *Service) { s.auditor = a }
}

// WithLogger overrides the service's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New constructs a sharing service. masterKey is the same per-deployment
// key internal/vaultsvc uses to unwrap a caller's per-account key.
func New(entries EntryStore, accounts AccountStore, shares ShareStore, masterKey []byte, opts ...Option) *Service {
	s := &Service{entries: entries, accounts: accounts, shares: shares, masterKey: masterKey, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) audit(ctx context.Context, action domain.AuditAction, accountID string, opts ...audit.EventOption) {
	if s.auditor == nil {
		return
	}
	ctx = auditctx.WithAccountID(ctx, accountID)
	if err := s.auditor.Log(ctx, string(action), opts...); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit record",
			slog.String("action", string(action)), slog.String("account_id", accountID), slog.Any("error", err))
	}
}

// CreateShare implements createShare(entryId, input) — owner-only.
func (s *Service) CreateShare(ctx context.Context, accountID, entryID string, in CreateInput) (*Created, error) {
	if _, err := s.entries.Get(ctx, entryID, accountID); err != nil {
		return nil, err
	}

	maxViews := in.MaxViews
	if maxViews <= 0 {
		maxViews = defaultMaxViews
	}
	expiresInHours := in.ExpiresInHours
	if expiresInHours <= 0 {
		expiresInHours = defaultExpiresInHours
	}

	raw, err := vaultcrypto.RandomOpaqueToken()
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "failed to generate share token", err)
	}

	sh := &domain.ShareCapability{
		EntryID:          entryID,
		AccountID:        accountID,
		TokenFingerprint: vaultcrypto.Fingerprint(raw),
		MaxViews:         maxViews,
		ExpiresAt:        time.Now().Add(time.Duration(expiresInHours) * time.Hour),
		IncludeSecret:    in.IncludeSecret,
		IncludeNotes:     in.IncludeNotes,
	}
	if err := s.shares.Create(ctx, sh); err != nil {
		return nil, err
	}

	s.audit(ctx, domain.AuditShare, accountID, audit.WithResource("vault_entry", entryID))
	return &Created{Capability: sh, RawToken: raw}, nil
}

// ListShares implements listShares — owner-scoped, metadata only.
func (s *Service) ListShares(ctx context.Context, accountID, entryID string) ([]*domain.ShareCapability, error) {
	return s.shares.ListForEntry(ctx, entryID, accountID)
}

// RevokeShare implements revokeShare — owner-scoped.
func (s *Service) RevokeShare(ctx context.Context, accountID, id string) error {
	return s.shares.Revoke(ctx, id, accountID)
}

// Access implements access(rawToken, accessorAddress) — public. Any
// failure that would disclose whether a capability exists at all
// collapses to the same domain.ErrShareNotFound as a genuinely unknown
// token, per the no-capability-presence-disclosure requirement.
func (s *Service) Access(ctx context.Context, rawToken string, accessorAddress *string) (*Disclosure, error) {
	fingerprint := vaultcrypto.Fingerprint(rawToken)
	sh, err := s.shares.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, domain.ErrShareNotFound
	}
	if !sh.Consumable(time.Now()) {
		return nil, domain.ErrShareNotFound
	}

	recorded, err := s.shares.RecordAccess(ctx, sh.ID, accessorAddress)
	if err != nil {
		return nil, domain.ErrShareNotFound
	}

	entry, err := s.entries.Get(ctx, recorded.EntryID, recorded.AccountID)
	if err != nil {
		return nil, domain.ErrShareNotFound
	}

	disclosure := &Disclosure{Title: entry.Title, Username: entry.Username, Site: entry.Site}
	if recorded.IncludeNotes {
		disclosure.Notes = entry.Notes
	}
	if recorded.IncludeSecret {
		acct, err := s.accounts.GetByID(ctx, recorded.AccountID)
		if err != nil {
			return nil, domain.ErrShareNotFound
		}
		key, err := vaultcrypto.Unwrap(acct.WrappedKey, s.masterKey)
		if err != nil {
			return nil, domain.ErrShareNotFound
		}
		plaintext, err := vaultcrypto.DecryptField(entry.SecretCiphertext, entry.SecretIV, entry.SecretAuthTag, key)
		if err != nil {
			return nil, domain.ErrShareNotFound
		}
		secret := string(plaintext)
		disclosure.Secret = &secret
	}

	s.audit(ctx, domain.AuditShareAccess, recorded.AccountID, audit.WithResource("vault_entry", recorded.EntryID))
	s.notifyAccess(ctx, recorded)
	return disclosure, nil
}

func (s *Service) notifyAccess(ctx context.Context, sh *domain.ShareCapability) {
	if s.notifier == nil {
		return
	}
	acct, err := s.accounts.GetByID(ctx, sh.AccountID)
	if err != nil || acct.Email == nil {
		return
	}
	err = s.notifier.SendEmail(ctx, email.SendEmailParams{
		SendTo:   *acct.Email,
		Subject:  "Your shared credential was viewed",
		BodyHTML: "<p>A shared credential link you created was just accessed.</p>",
		Tag:      "share-access",
	})
	if err != nil {
		s.logger.WarnContext(ctx, "share access notification failed",
			slog.String("account_id", sh.AccountID), slog.Any("error", err))
	}
}
