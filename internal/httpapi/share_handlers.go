package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shieldvault/vaultd/binder"
	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/sharesvc"
	"github.com/shieldvault/vaultd/pkg/clientip"
)

type shareHandlers struct {
	svc    *sharesvc.Service
	logger *slog.Logger
}

func newShareHandlers(svc *sharesvc.Service, logger *slog.Logger) *shareHandlers {
	return &shareHandlers{svc: svc, logger: logger}
}

type shareView struct {
	ID            string  `json:"id"`
	MaxViews      int     `json:"maxViews"`
	ViewCount     int     `json:"viewCount"`
	IncludeSecret bool    `json:"includeSecret"`
	IncludeNotes  bool    `json:"includeNotes"`
	AccessorIP    *string `json:"accessorIp,omitempty"`
}

func toShareView(sh *domain.ShareCapability) shareView {
	return shareView{
		ID: sh.ID, MaxViews: sh.MaxViews, ViewCount: sh.ViewCount,
		IncludeSecret: sh.IncludeSecret, IncludeNotes: sh.IncludeNotes, AccessorIP: sh.AccessorAddress,
	}
}

type createShareRequest struct {
	MaxViews       int  `json:"maxViews,omitempty"`
	ExpiresInHours int  `json:"expiresInHours,omitempty"`
	IncludeSecret  bool `json:"includeSecret"`
	IncludeNotes   bool `json:"includeNotes"`
}

func (h *shareHandlers) create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	entryID := chi.URLParam(r, "id")

	var req createShareRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := h.svc.CreateShare(r.Context(), accountID, entryID, sharesvc.CreateInput{
		MaxViews: req.MaxViews, ExpiresInHours: req.ExpiresInHours,
		IncludeSecret: req.IncludeSecret, IncludeNotes: req.IncludeNotes,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		shareView
		Token string `json:"token"`
	}{toShareView(created.Capability), created.RawToken})
}

func (h *shareHandlers) list(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	shares, err := h.svc.ListShares(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]shareView, len(shares))
	for i, sh := range shares {
		out[i] = toShareView(sh)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *shareHandlers) revoke(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.svc.RevokeShare(r.Context(), accountID, chi.URLParam(r, "shareId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// access is the anonymous, unauthenticated capability-consumption
// endpoint — it must never be mounted behind requireAuth.
func (h *shareHandlers) access(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	addr := clientip.GetIPFromContext(r.Context())
	var accessorAddress *string
	if addr != "" {
		accessorAddress = &addr
	}

	disclosure, err := h.svc.Access(r.Context(), token, accessorAddress)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, disclosure)
}
