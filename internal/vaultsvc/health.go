package vaultsvc

import (
	"context"
	"time"

	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/vaultcrypto"
)

// oldEntryThreshold is how long ago createdAt must be to count as "old",
// per §4.5.
const oldEntryThreshold = 90 * 24 * time.Hour

// HealthReport summarizes the strength/age/reuse posture of every entry an
// account owns.
type HealthReport struct {
	Total    int
	Strong   int
	Medium   int
	Weak     int
	NoSecret int
	Old      int
	Reused   int
}

// Health implements health(): decrypts every owned secret once and
// classifies it. A single record's decryption failure never fails the
// whole analysis — it is counted as NoSecret instead.
func (s *Service) Health(ctx context.Context, accountID string) (*HealthReport, error) {
	entries, err := s.entries.ListAllForExport(ctx, accountID)
	if err != nil {
		return nil, err
	}

	key, keyErr := s.userKey(ctx, accountID)

	report := &HealthReport{Total: len(entries)}
	plaintextCounts := make(map[string]int, len(entries))
	now := time.Now()

	for _, e := range entries {
		var plaintext string
		decrypted := false
		if keyErr == nil {
			if pt, err := vaultcrypto.DecryptField(e.SecretCiphertext, e.SecretIV, e.SecretAuthTag, key); err == nil {
				plaintext = string(pt)
				decrypted = true
			}
		}

		switch {
		case !decrypted || plaintext == "":
			report.NoSecret++
		default:
			classifyStrength(report, domain.StrengthScore(plaintext))
			plaintextCounts[plaintext]++
		}

		if now.Sub(e.CreatedAt) > oldEntryThreshold {
			report.Old++
		}
	}

	for _, count := range plaintextCounts {
		if count > 1 {
			report.Reused += count
		}
	}

	return report, nil
}

func classifyStrength(report *HealthReport, strength int) {
	switch {
	case strength >= 4:
		report.Strong++
	case strength >= 2:
		report.Medium++
	default:
		report.Weak++
	}
}

