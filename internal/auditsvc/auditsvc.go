// Package auditsvc implements the query side of C8: filtered, paginated
// retrieval of audit records and a day-windowed summary grouped by
// action. Writing records is the service layer's own responsibility
// (each of authsvc/vaultsvc/sharesvc logs fire-and-forget through
// pkg/audit.Logger directly); this package only reads.
package auditsvc

import (
	"context"
	"sort"
	"time"

	"github.com/shieldvault/vaultd/pkg/audit"
)

const defaultSummaryWindowDays = 30

// Service implements the C8 query API over pkg/audit's Reader
// abstraction, scoped to a single account at a time.
type Service struct {
	reader audit.Reader
}

// New constructs a query service backed by storage (normally
// internal/store/postgres.AuditStore).
func New(storage audit.Storage) *Service {
	return &Service{reader: audit.NewReader(storage)}
}

// ListFilter narrows a query to an account, optionally further refined by
// action and an inclusive [start, end] date range, with pagination.
type ListFilter struct {
	AccountID string
	Action    string
	Start     time.Time
	End       time.Time
	Limit     int
	Offset    int
}

// List returns audit records matching filter, scoped to the given
// account.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]audit.Event, int64, error) {
	criteria := audit.Criteria{
		UserID:    filter.AccountID,
		Action:    filter.Action,
		StartTime: filter.Start,
		EndTime:   filter.End,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}

	events, err := s.reader.Find(ctx, criteria)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reader.Count(ctx, criteria)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ActionCount is one row of a Summary result.
type ActionCount struct {
	Action string
	Count  int
}

// Summary groups an account's audit records from the last windowDays days
// by action, most frequent first. windowDays <= 0 uses the default
// 30-day window.
func (s *Service) Summary(ctx context.Context, accountID string, windowDays int) ([]ActionCount, error) {
	if windowDays <= 0 {
		windowDays = defaultSummaryWindowDays
	}

	events, err := s.reader.Find(ctx, audit.Criteria{
		UserID:    accountID,
		StartTime: time.Now().AddDate(0, 0, -windowDays),
		Limit:     10000,
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Action]++
	}

	out := make([]ActionCount, 0, len(counts))
	for action, count := range counts {
		out = append(out, ActionCount{Action: action, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}
