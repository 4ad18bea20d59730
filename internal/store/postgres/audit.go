package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldvault/vaultd/pkg/audit"
)

// AuditStore adapts the append-only audit_records table to
// pkg/audit.Storage (and its optional StorageCounter extension), so the
// already-fixed pkg/audit.Logger can write through to Postgres instead of
// an in-memory or external sink.
//
// pkg/audit.Event is a generic tenant/user/session shape; this store maps
// it onto the account-scoped audit_records schema: UserID becomes
// account_id, ResourceID becomes entry_id, and everything else the
// generic Event carries (Result, Error, SessionID, RequestID) is folded
// into the details JSONB column alongside caller-supplied metadata.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

func (s *AuditStore) Store(ctx context.Context, events ...audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin audit store: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO audit_records (account_id, action, entry_id, entry_title, network_address, user_agent, details)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`

	for _, e := range events {
		details := map[string]any{}
		for k, v := range e.Metadata {
			details[k] = v
		}
		details["result"] = string(e.Result)
		if e.Error != "" {
			details["error"] = e.Error
		}
		if e.SessionID != "" {
			details["session_id"] = e.SessionID
		}
		if e.RequestID != "" {
			details["request_id"] = e.RequestID
		}

		detailsJSON, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("postgres: marshal audit details: %w", err)
		}

		var entryID *string
		if e.ResourceID != "" {
			id := e.ResourceID
			entryID = &id
		}
		var entryTitle *string
		if title, ok := e.Metadata["entry_title"].(string); ok {
			entryTitle = &title
		}
		var networkAddr *string
		if e.IP != "" {
			networkAddr = &e.IP
		}
		var userAgent *string
		if e.UserAgent != "" {
			userAgent = &e.UserAgent
		}

		if _, err := tx.Exec(ctx, q, e.UserID, e.Action, entryID, entryTitle, networkAddr, userAgent, detailsJSON); err != nil {
			return fmt.Errorf("postgres: insert audit record: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *AuditStore) Query(ctx context.Context, criteria audit.Criteria) ([]audit.Event, error) {
	where := []string{"1=1"}
	args := []any{}

	if criteria.UserID != "" {
		args = append(args, criteria.UserID)
		where = append(where, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if criteria.Action != "" {
		args = append(args, criteria.Action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	if criteria.ResourceID != "" {
		args = append(args, criteria.ResourceID)
		where = append(where, fmt.Sprintf("entry_id = $%d", len(args)))
	}
	if !criteria.StartTime.IsZero() {
		args = append(args, criteria.StartTime)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !criteria.EndTime.IsZero() {
		args = append(args, criteria.EndTime)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := criteria.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	args = append(args, criteria.Offset)

	q := fmt.Sprintf(`
		SELECT id, account_id, action, entry_id, entry_title, network_address, user_agent, details, created_at
		FROM audit_records
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query audit records: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			id, accountID, action                       string
			entryID, entryTitle, networkAddr, userAgent *string
			detailsJSON                                 []byte
		)
		var ev audit.Event
		if err := rows.Scan(&id, &accountID, &action, &entryID, &entryTitle, &networkAddr, &userAgent, &detailsJSON, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan audit record: %w", err)
		}

		ev.ID = id
		ev.UserID = accountID
		ev.Action = action
		if entryID != nil {
			ev.ResourceID = *entryID
			ev.Resource = "vault_entry"
		}
		if networkAddr != nil {
			ev.IP = *networkAddr
		}
		if userAgent != nil {
			ev.UserAgent = *userAgent
		}

		if len(detailsJSON) > 0 {
			var details map[string]any
			if err := json.Unmarshal(detailsJSON, &details); err == nil {
				if r, ok := details["result"].(string); ok {
					ev.Result = audit.Result(r)
					delete(details, "result")
				}
				if errStr, ok := details["error"].(string); ok {
					ev.Error = errStr
					delete(details, "error")
				}
				if sid, ok := details["session_id"].(string); ok {
					ev.SessionID = sid
					delete(details, "session_id")
				}
				if rid, ok := details["request_id"].(string); ok {
					ev.RequestID = rid
					delete(details, "request_id")
				}
				if entryTitle != nil {
					details["entry_title"] = *entryTitle
				}
				ev.Metadata = details
			}
		}

		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *AuditStore) Count(ctx context.Context, criteria audit.Criteria) (int64, error) {
	where := []string{"1=1"}
	args := []any{}

	if criteria.UserID != "" {
		args = append(args, criteria.UserID)
		where = append(where, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if criteria.Action != "" {
		args = append(args, criteria.Action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	if criteria.ResourceID != "" {
		args = append(args, criteria.ResourceID)
		where = append(where, fmt.Sprintf("entry_id = $%d", len(args)))
	}
	if !criteria.StartTime.IsZero() {
		args = append(args, criteria.StartTime)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !criteria.EndTime.IsZero() {
		args = append(args, criteria.EndTime)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	q := fmt.Sprintf(`SELECT count(*) FROM audit_records WHERE %s`, strings.Join(where, " AND "))

	var count int64
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count audit records: %w", err)
	}
	return count, nil
}

var (
	_ audit.Storage        = (*AuditStore)(nil)
	_ audit.StorageCounter = (*AuditStore)(nil)
)
