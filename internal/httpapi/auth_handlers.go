package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shieldvault/vaultd/binder"
	"github.com/shieldvault/vaultd/internal/authsvc"
	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/pkg/cookie"
)

const refreshCookieName = "vaultd_refresh"

// authHandlers wires /api/auth/*.
type authHandlers struct {
	svc      *authsvc.Service
	oauth    map[string]*authsvc.OAuthFlow
	cookies  *cookie.Manager
	frontend string
	logger   *slog.Logger
}

func newAuthHandlers(svc *authsvc.Service, oauth map[string]*authsvc.OAuthFlow, cookies *cookie.Manager, frontendSuccessURL string, logger *slog.Logger) *authHandlers {
	return &authHandlers{svc: svc, oauth: oauth, cookies: cookies, frontend: frontendSuccessURL, logger: logger}
}

// accountView is the JSON shape an account is rendered as — it never
// carries the credential hash or the wrapped key.
type accountView struct {
	ID          string  `json:"id"`
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
}

func toAccountView(a *domain.Account) accountView {
	return accountView{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

type authResponse struct {
	AccessToken          string      `json:"accessToken"`
	AccessTokenExpiresAt time.Time   `json:"accessTokenExpiresAt"`
	User                 accountView `json:"user"`
}

// setRefreshCookie relies on h.cookies already being constructed with
// Path "/api/auth" as its default (cookie.WithPath at cmd/server
// wiring time) — Delete has no per-call path override, so Set and
// Delete must agree on the same default or the browser will hold two
// cookies under the same name at different scopes.
func (h *authHandlers) setRefreshCookie(w http.ResponseWriter, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	_ = h.cookies.Set(w, refreshCookieName, raw,
		cookie.WithMaxAge(maxAge),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)
}

func (h *authHandlers) clearRefreshCookie(w http.ResponseWriter) {
	h.cookies.Delete(w, refreshCookieName)
}

func (h *authHandlers) respondWithTokens(w http.ResponseWriter, acct *domain.Account, tokens *authsvc.Tokens) {
	h.setRefreshCookie(w, tokens.RefreshToken, tokens.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:          tokens.BearerToken,
		AccessTokenExpiresAt: tokens.BearerExpiresAt,
		User:                 toAccountView(acct),
	})
}

type registerRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"displayName,omitempty"`
}

func (h *authHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeValidationErrors(w, []FieldError{{Field: "email", Message: "email and password are required"}})
		return
	}

	acct, tokens, err := h.svc.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondWithTokens(w, acct, tokens)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	acct, tokens, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondWithTokens(w, acct, tokens)
}

func (h *authHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	raw, err := h.cookies.Get(r, refreshCookieName)
	if err != nil || raw == "" {
		writeError(w, r, h.logger, domain.ErrRefreshInvalid)
		return
	}

	acct, tokens, err := h.svc.Refresh(r.Context(), raw)
	if err != nil {
		h.clearRefreshCookie(w)
		writeError(w, r, h.logger, err)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken, tokens.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:          tokens.BearerToken,
		AccessTokenExpiresAt: tokens.BearerExpiresAt,
		User:                 toAccountView(acct),
	})
}

func (h *authHandlers) logout(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	raw, _ := h.cookies.Get(r, refreshCookieName)
	if raw != "" {
		_ = h.svc.Logout(r.Context(), p.AccountID, raw)
	}
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *authHandlers) me(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}
	acct, err := h.svc.Account(r.Context(), p.AccountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		User accountView `json:"user"`
	}{toAccountView(acct)})
}

func (h *authHandlers) oauthStart(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	flow, ok := h.oauth[provider]
	if !ok {
		writeError(w, r, h.logger, domain.NewError(domain.KindNotFound, "unknown oauth provider", nil))
		return
	}
	url, err := flow.AuthURL(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// oauthCallback exchanges the provider's authorization code, sets the
// refresh cookie, and redirects to the configured frontend URL. The
// bearer credential is never placed in the redirect URL (§4.9) — the
// frontend calls /api/auth/refresh immediately after landing to mint one
// from the cookie that was just set.
func (h *authHandlers) oauthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	flow, ok := h.oauth[provider]
	if !ok {
		writeError(w, r, h.logger, domain.NewError(domain.KindNotFound, "unknown oauth provider", nil))
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	_, tokens, err := flow.HandleCallback(r.Context(), state, code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken, tokens.RefreshExpiresAt)
	http.Redirect(w, r, h.frontend, http.StatusFound)
}
