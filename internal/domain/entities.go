package domain

import "time"

// Account is the identity principal. An Account is usable for vault
// operations only once WrappedKey is set; it is lazily materialised on the
// first sign-in that needs it.
type Account struct {
	ID             string
	Email          *string
	CredentialHash *string
	DisplayName    *string
	WrappedKey     []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasSecret reports whether the account can authenticate with a password.
func (a *Account) HasSecret() bool { return a.CredentialHash != nil }

// OAuthLink binds a single provider identity to an Account. Unique on
// (Provider, ProviderAccountID).
type OAuthLink struct {
	ID               string
	AccountID        string
	Provider         string
	ProviderAccountID string
	AccessToken      *string
	RefreshToken     *string
	CreatedAt        time.Time
}

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// RefreshRecord is a long-lived refresh-credential handle. The raw token is
// never stored, only its fingerprint.
type RefreshRecord struct {
	ID               string
	AccountID        string
	TokenFingerprint string
	Revoked          bool
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// Active reports whether the record can still be used to mint a bearer
// credential at the given instant.
func (r *RefreshRecord) Active(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}

// VaultEntry is one encrypted credential record. SecretCiphertext,
// SecretIV and SecretAuthTag form an authenticated triple that is always
// rewritten together.
type VaultEntry struct {
	ID               string
	AccountID        string
	Title            string
	Username         *string
	Site             *string
	Notes            *string
	SecretCiphertext []byte
	SecretIV         []byte
	SecretAuthTag    []byte
	CollectionID     *string
	IsFavourite      bool
	IsPinned         bool
	Strength         *int
	LastUsedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// TagIDs is populated by the store layer for convenience; it is not a
	// column on the vault_entries table.
	TagIDs []string
}

// Collection is a folder owned by an account.
type Collection struct {
	ID          string
	AccountID   string
	Name        string
	Description *string
	Icon        *string
	Color       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag is a label owned by an account, unique on (AccountID, Name).
type Tag struct {
	ID        string
	AccountID string
	Name      string
	CreatedAt time.Time
}

// ShareCapability is a one-time or bounded-use read grant over a single
// VaultEntry. The raw token is returned exactly once, at creation.
type ShareCapability struct {
	ID               string
	EntryID          string
	AccountID        string
	TokenFingerprint string
	MaxViews         int
	ViewCount        int
	ExpiresAt        time.Time
	AccessedAt       *time.Time
	AccessorAddress  *string
	IncludeSecret    bool
	IncludeNotes     bool
	CreatedAt        time.Time
}

// Consumable reports whether the capability still grants a view at now.
func (s *ShareCapability) Consumable(now time.Time) bool {
	return now.Before(s.ExpiresAt) && s.ViewCount < s.MaxViews
}

// AuditAction enumerates the recognised audit action verbs.
type AuditAction string

const (
	AuditLogin        AuditAction = "login"
	AuditLogout       AuditAction = "logout"
	AuditReveal       AuditAction = "reveal"
	AuditCopy         AuditAction = "copy"
	AuditCreate       AuditAction = "create"
	AuditUpdate       AuditAction = "update"
	AuditDelete       AuditAction = "delete"
	AuditExport       AuditAction = "export"
	AuditImport       AuditAction = "import"
	AuditShare        AuditAction = "share"
	AuditShareAccess  AuditAction = "share_access"
)

// AuditRecord is an append-only action log entry. No code path updates or
// deletes a record once written.
type AuditRecord struct {
	ID             string
	AccountID      string
	Action         AuditAction
	EntryID        *string
	EntryTitle     *string
	NetworkAddress *string
	UserAgent      *string
	Details        map[string]any
	CreatedAt      time.Time
}
