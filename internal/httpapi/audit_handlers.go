package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shieldvault/vaultd/internal/auditsvc"
)

type auditHandlers struct {
	svc    *auditsvc.Service
	logger *slog.Logger
}

func newAuditHandlers(svc *auditsvc.Service, logger *slog.Logger) *auditHandlers {
	return &auditHandlers{svc: svc, logger: logger}
}

func parseTimeParam(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// list answers the audit log's filtered, paginated query side. Events are
// already JSON-tagged by pkg/audit and returned as-is.
func (h *auditHandlers) list(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, offset := parsePagination(r)
	events, total, err := h.svc.List(r.Context(), auditsvc.ListFilter{
		AccountID: accountID,
		Action:    q.Get("action"),
		Start:     parseTimeParam(q.Get("start")),
		End:       parseTimeParam(q.Get("end")),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Events any   `json:"events"`
		Total  int64 `json:"total"`
	}{events, total})
}

// summary answers the day-windowed, action-grouped count used for a
// dashboard view. windowDays defaults to the service's own default (30)
// when absent or unparsable.
func (h *auditHandlers) summary(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	windowDays := 0
	if v := r.URL.Query().Get("windowDays"); v != "" {
		if parsed, err := parseIntQuery(v); err == nil {
			windowDays = parsed
		}
	}

	summary, err := h.svc.Summary(r.Context(), accountID, windowDays)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
