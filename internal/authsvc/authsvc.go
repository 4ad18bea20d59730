// Package authsvc implements C3 (the auth service): registration,
// password login, bearer-credential refresh/logout, and OAuth
// find-or-link, on top of the domain's Account/OAuthLink/RefreshRecord
// stores. Grounded on the teacher's pkg/auth services (functional-option
// construction, bcrypt-based credential hashing, constant-time comparison
// semantics) but rebuilt against this module's own Account shape rather
// than pkg/auth's Identity/User models — see DESIGN.md for why those two
// models were not reused directly.
package authsvc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shieldvault/vaultd/internal/auditctx"
	"github.com/shieldvault/vaultd/internal/bearer"
	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/refreshtoken"
	"github.com/shieldvault/vaultd/internal/vaultcrypto"
	"github.com/shieldvault/vaultd/pkg/audit"
)

// AccountStore is the subset of the Postgres account repository this
// service depends on.
type AccountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	SetWrappedKey(ctx context.Context, accountID string, wrapped []byte) error
}

// OAuthLinkStore is the subset of the Postgres oauth_links repository this
// service depends on.
type OAuthLinkStore interface {
	FindByProvider(ctx context.Context, provider, providerAccountID string) (*domain.OAuthLink, error)
	Create(ctx context.Context, l *domain.OAuthLink) error
}

// RefreshRecordStore is the subset of the Postgres refresh_records
// repository this service depends on.
type RefreshRecordStore interface {
	Create(ctx context.Context, r *domain.RefreshRecord) error
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.RefreshRecord, error)
	Revoke(ctx context.Context, id, accountID string) error
	RevokeAllForAccount(ctx context.Context, accountID string) error
}

// Tokens is what every successful authentication operation returns: a
// short-lived bearer credential and a long-lived raw refresh token. The
// raw refresh value is returned exactly once, here.
type Tokens struct {
	BearerToken      string
	BearerExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Service implements C3.
type Service struct {
	accounts AccountStore
	oauth    OAuthLinkStore
	refresh  RefreshRecordStore

	bearer    *bearer.Service
	refresher *refreshtoken.Service
	masterKey []byte

	bcryptCost int

	auditor audit.Logger
	logger  *slog.Logger
}

// Option configures a Service during construction.
type Option func(*Service)

// WithBcryptCost overrides the default bcrypt cost factor.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithLogger overrides the service's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithAuditor wires an audit.Logger to record login/logout events.
// Omitting it disables auditing entirely (the service still functions).
func WithAuditor(a audit.Logger) Option {
	return func(s *Service) { s.auditor = a }
}

// New constructs an auth service. masterKey is the 32-byte key wrapping
// every account's per-user key (§4.1); refreshTTL governs how long a
// RefreshRecord remains active (§3).
func New(
	accounts AccountStore,
	oauthLinks OAuthLinkStore,
	refreshRecords RefreshRecordStore,
	bearerSvc *bearer.Service,
	masterKey []byte,
	refreshTTL time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:   accounts,
		oauth:      oauthLinks,
		refresh:    refreshRecords,
		bearer:     bearerSvc,
		refresher:  refreshtoken.NewService(refreshTTL),
		masterKey:  masterKey,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) audit(ctx context.Context, action domain.AuditAction, accountID string) {
	if s.auditor == nil {
		return
	}
	ctx = auditctx.WithAccountID(ctx, accountID)
	if err := s.auditor.Log(ctx, string(action)); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit record",
			slog.String("action", string(action)), slog.String("account_id", accountID), slog.Any("error", err))
	}
}

// Register implements register(email, password, displayName?).
func (s *Service) Register(ctx context.Context, email, password string, displayName *string) (*domain.Account, *Tokens, error) {
	if !domain.ValidPasswordPolicy(password) {
		return nil, nil, domain.NewError(domain.KindValidation, "password must be at least 8 characters and contain upper, lower, and a digit", nil)
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil && domain.KindOf(err) != domain.KindNotFound {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, nil, domain.NewError(domain.KindInternal, "failed to hash password", err)
	}
	hashStr := string(hash)

	wrapped, err := s.freshWrappedKey()
	if err != nil {
		return nil, nil, err
	}

	emailCopy := email
	acct := &domain.Account{
		Email:          &emailCopy,
		CredentialHash: &hashStr,
		DisplayName:    displayName,
		WrappedKey:     wrapped,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, acct)
	if err != nil {
		return nil, nil, err
	}

	s.audit(ctx, domain.AuditLogin, acct.ID)
	return acct, tokens, nil
}

// dummyHash is a fixed, valid bcrypt hash of no real password, used to keep
// the lookup-miss path's timing comparable to a real comparison failure.
const dummyHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8Z7Q2.z3wT5KFDVhwYh8rGvF3h3l3O"

// Login implements login(email, password). Lookup and comparison failures
// both collapse to ErrInvalidCredentials — the caller must not be able to
// tell whether the email exists.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Account, *Tokens, error) {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil || acct == nil || !acct.HasSecret() {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*acct.CredentialHash), []byte(password)); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	if len(acct.WrappedKey) == 0 {
		if err := s.materializeKey(ctx, acct); err != nil {
			return nil, nil, err
		}
	}

	tokens, err := s.issueTokens(ctx, acct)
	if err != nil {
		return nil, nil, err
	}

	s.audit(ctx, domain.AuditLogin, acct.ID)
	return acct, tokens, nil
}

// Refresh implements refresh(rawRefreshToken). Every successful call
// rotates the refresh token: a new RefreshRecord is minted and the old
// one is revoked in the same call, so a stolen-then-replayed token is
// immediately detectable (its fingerprint no longer matches an active
// record once the legitimate client has rotated past it).
func (s *Service) Refresh(ctx context.Context, rawRefreshToken string) (*domain.Account, *Tokens, error) {
	fingerprint := s.refresher.Fingerprint(rawRefreshToken)

	record, err := s.refresh.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, nil, err
	}
	if !record.Active(time.Now()) {
		return nil, nil, domain.ErrRefreshInvalid
	}

	acct, err := s.accounts.GetByID(ctx, record.AccountID)
	if err != nil {
		return nil, nil, err
	}

	bearerToken, bearerExp, err := s.issueBearer(acct)
	if err != nil {
		return nil, nil, err
	}

	issued, err := s.refresher.Issue()
	if err != nil {
		return nil, nil, err
	}
	newRecord := &domain.RefreshRecord{
		AccountID:        acct.ID,
		TokenFingerprint: issued.Fingerprint,
		ExpiresAt:        issued.ExpiresAt,
	}
	if err := s.refresh.Create(ctx, newRecord); err != nil {
		return nil, nil, err
	}
	if err := s.refresh.Revoke(ctx, record.ID, acct.ID); err != nil {
		return nil, nil, err
	}

	return acct, &Tokens{
		BearerToken:      bearerToken,
		BearerExpiresAt:  bearerExp,
		RefreshToken:     issued.Raw,
		RefreshExpiresAt: newRecord.ExpiresAt,
	}, nil
}

// Account loads the account a verified bearer credential's accountId
// claim refers to, for handlers (GET /auth/me) that need profile fields
// the claim itself doesn't carry, such as displayName.
func (s *Service) Account(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

// Logout implements logout(rawRefreshToken) — idempotent revoke by
// fingerprint.
func (s *Service) Logout(ctx context.Context, accountID, rawRefreshToken string) error {
	fingerprint := s.refresher.Fingerprint(rawRefreshToken)
	record, err := s.refresh.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, domain.ErrRefreshInvalid) {
			return nil
		}
		return err
	}
	if err := s.refresh.Revoke(ctx, record.ID, accountID); err != nil {
		if errors.Is(err, domain.ErrRefreshInvalid) {
			return nil
		}
		return err
	}
	s.audit(ctx, domain.AuditLogout, accountID)
	return nil
}

// FindOrLinkOAuth implements findOrCreateOAuthLink(provider, providerId,
// email?, displayName?): an existing link wins outright; otherwise an
// existing account with the same email is linked; otherwise a fresh
// account is created. Either way the returned account always carries a
// wrapped key by the time this returns.
func (s *Service) FindOrLinkOAuth(ctx context.Context, provider, providerAccountID, email string, displayName *string) (*domain.Account, *Tokens, error) {
	link, err := s.oauth.FindByProvider(ctx, provider, providerAccountID)
	if err != nil {
		return nil, nil, err
	}

	var acct *domain.Account
	if link != nil {
		acct, err = s.accounts.GetByID(ctx, link.AccountID)
		if err != nil {
			return nil, nil, err
		}
	} else {
		acct, err = s.accounts.GetByEmail(ctx, email)
		if err != nil && domain.KindOf(err) != domain.KindNotFound {
			return nil, nil, err
		}
		if acct == nil {
			emailCopy := email
			acct = &domain.Account{Email: &emailCopy, DisplayName: displayName}
			if err := s.accounts.Create(ctx, acct); err != nil {
				return nil, nil, err
			}
		}
		if err := s.oauth.Create(ctx, &domain.OAuthLink{
			AccountID:         acct.ID,
			Provider:          provider,
			ProviderAccountID: providerAccountID,
		}); err != nil {
			return nil, nil, err
		}
	}

	if len(acct.WrappedKey) == 0 {
		if err := s.materializeKey(ctx, acct); err != nil {
			return nil, nil, err
		}
	}

	tokens, err := s.issueTokens(ctx, acct)
	if err != nil {
		return nil, nil, err
	}
	s.audit(ctx, domain.AuditLogin, acct.ID)
	return acct, tokens, nil
}

func (s *Service) freshWrappedKey() ([]byte, error) {
	userKey, err := vaultcrypto.GenerateUserKey()
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "failed to generate account key", err)
	}
	wrapped, err := vaultcrypto.Wrap(userKey, s.masterKey)
	if err != nil {
		return nil, domain.NewError(domain.KindCrypto, "failed to wrap account key", err)
	}
	return wrapped, nil
}

func (s *Service) materializeKey(ctx context.Context, acct *domain.Account) error {
	wrapped, err := s.freshWrappedKey()
	if err != nil {
		return err
	}
	if err := s.accounts.SetWrappedKey(ctx, acct.ID, wrapped); err != nil {
		return err
	}
	acct.WrappedKey = wrapped
	return nil
}

func (s *Service) issueBearer(acct *domain.Account) (string, time.Time, error) {
	email := ""
	if acct.Email != nil {
		email = *acct.Email
	}
	token, err := s.bearer.Issue(acct.ID, email)
	if err != nil {
		return "", time.Time{}, err
	}
	claims, err := s.bearer.Verify(token)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Unix(claims.ExpiresAt, 0), nil
}

func (s *Service) issueTokens(ctx context.Context, acct *domain.Account) (*Tokens, error) {
	bearerToken, bearerExp, err := s.issueBearer(acct)
	if err != nil {
		return nil, err
	}

	issued, err := s.refresher.Issue()
	if err != nil {
		return nil, err
	}
	record := &domain.RefreshRecord{
		AccountID:        acct.ID,
		TokenFingerprint: issued.Fingerprint,
		ExpiresAt:        issued.ExpiresAt,
	}
	if err := s.refresh.Create(ctx, record); err != nil {
		return nil, err
	}

	return &Tokens{
		BearerToken:      bearerToken,
		BearerExpiresAt:  bearerExp,
		RefreshToken:     issued.Raw,
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}
