package vaultsvc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/vaultcrypto"
	"github.com/shieldvault/vaultd/pkg/audit"
)

// ExportedEntry is the decrypted, flat shape an export response carries.
type ExportedEntry struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Username     *string `json:"username,omitempty"`
	Site         *string `json:"site,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	Secret       string  `json:"secret"`
	CollectionID *string `json:"collectionId,omitempty"`
}

// Export implements export(): returns every owned entry with its secret
// decrypted, writes one export audit, and best-effort persists a backup
// copy to S3 (failure is logged, never surfaced).
func (s *Service) Export(ctx context.Context, accountID string) ([]ExportedEntry, error) {
	entries, err := s.entries.ListAllForExport(ctx, accountID)
	if err != nil {
		return nil, err
	}

	key, err := s.userKey(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := make([]ExportedEntry, 0, len(entries))
	for _, e := range entries {
		plaintext, err := vaultcrypto.DecryptField(e.SecretCiphertext, e.SecretIV, e.SecretAuthTag, key)
		if err != nil {
			return nil, domain.NewError(domain.KindCrypto, "failed to decrypt entry during export", err)
		}
		out = append(out, ExportedEntry{
			ID:           e.ID,
			Title:        e.Title,
			Username:     e.Username,
			Site:         e.Site,
			Notes:        e.Notes,
			Secret:       string(plaintext),
			CollectionID: e.CollectionID,
		})
	}

	s.backupExport(ctx, accountID, out)
	s.audit(ctx, domain.AuditExport, accountID, "", "")
	return out, nil
}

func (s *Service) backupExport(ctx context.Context, accountID string, entries []ExportedEntry) {
	if s.backup == nil {
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		s.logger.WarnContext(ctx, "export backup marshal failed", slog.String("account_id", accountID), slog.Any("error", err))
		return
	}
	if err := s.backup.Store(ctx, accountID, time.Now(), payload); err != nil {
		s.logger.WarnContext(ctx, "export backup upload failed", slog.String("account_id", accountID), slog.Any("error", err))
	}
}

// ImportEntry is one caller-supplied row for Import.
type ImportEntry struct {
	Title        string  `json:"title"`
	Username     *string `json:"username,omitempty"`
	Site         *string `json:"site,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	Secret       string  `json:"secret"`
	CollectionID *string `json:"collectionId,omitempty"`
}

// Import implements import(entries): best-effort, each entry that fails
// validation or encryption is skipped; successful insertions are counted
// and a single import audit records the final count.
func (s *Service) Import(ctx context.Context, accountID string, entries []ImportEntry) (int, error) {
	key, err := s.userKey(ctx, accountID)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, in := range entries {
		if in.Title == "" {
			continue
		}
		ciphertext, nonce, tag, err := vaultcrypto.EncryptField([]byte(in.Secret), key)
		if err != nil {
			continue
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
			continue
		}
		s.syncIndex(ctx, e)
		imported++
	}

	s.audit(ctx, domain.AuditImport, accountID, "", "", audit.WithMetadata("imported_count", imported))
	return imported, nil
}
