package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shieldvault/vaultd/internal/auditsvc"
	"github.com/shieldvault/vaultd/internal/authsvc"
	"github.com/shieldvault/vaultd/internal/bearer"
	"github.com/shieldvault/vaultd/internal/organize"
	"github.com/shieldvault/vaultd/internal/ratelimiter"
	"github.com/shieldvault/vaultd/internal/sharesvc"
	"github.com/shieldvault/vaultd/internal/vaultsvc"
	"github.com/shieldvault/vaultd/pkg/cookie"
)

// Deps is everything the router needs to mount every endpoint named in
// the external-interface contract.
type Deps struct {
	Auth       *authsvc.Service
	OAuth      map[string]*authsvc.OAuthFlow
	Vault      *vaultsvc.Service
	Organize   *organize.Service
	Share      *sharesvc.Service
	Audit      *auditsvc.Service
	Bearer     *bearer.Service
	Cookies    *cookie.Manager
	RateLimits *ratelimiter.Buckets

	FrontendOrigin     string
	FrontendSuccessURL string

	Logger *slog.Logger
}

// NewRouter assembles the full chi router: ambient middleware (request
// ID, body cap, client/user-agent annotation, CORS, rate limiting), then
// every domain's handlers mounted at its own path, bearer-protected except
// for the explicitly public auth and share-access endpoints (§4.4, §4.9).
func NewRouter(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(limitBody(maxRequestBody))
	r.Use(annotateRequest)
	r.Use(cors(d.FrontendOrigin))

	auth := newAuthHandlers(d.Auth, d.OAuth, d.Cookies, d.FrontendSuccessURL, logger)
	vault := newVaultHandlers(d.Vault, logger)
	organizeH := newOrganizeHandlers(d.Organize, logger)
	share := newShareHandlers(d.Share, logger)
	auditH := newAuditHandlers(d.Audit, logger)

	requireBearer := requireAuth(d.Bearer, logger)
	authLimited := rateLimited(d.RateLimits.Auth, logger)
	generalLimited := rateLimited(d.RateLimits.General, logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(authLimited)
		r.Post("/register", auth.register)
		r.Post("/login", auth.login)
		r.Post("/refresh", auth.refresh)
		r.Get("/{provider}/start", auth.oauthStart)
		r.Get("/{provider}/callback", auth.oauthCallback)

		r.Group(func(r chi.Router) {
			r.Use(requireBearer)
			r.Post("/logout", auth.logout)
			r.Get("/me", auth.me)
		})
	})

	// Anonymous share-access — never behind requireBearer, since the
	// accessor isn't an account holder at all (§4.7).
	r.With(generalLimited).Get("/api/shares/access/{token}", share.access)

	r.Route("/api/passwords", func(r chi.Router) {
		r.Use(requireBearer, generalLimited)
		r.Get("/", vault.list)
		r.Post("/", vault.create)
		r.Post("/direct-save", vault.directSave)
		r.Post("/bulk-delete", vault.bulkDelete)
		r.Get("/health", vault.health)
		r.Get("/export", vault.export)
		r.Post("/import", vault.importEntries)
		r.Get("/{id}", vault.get)
		r.Put("/{id}", vault.update)
		r.Delete("/{id}", vault.delete)
		r.Post("/{id}/favorite", vault.toggleFavourite)
		r.Post("/{id}/pin", vault.togglePinned)
		r.Get("/{id}/tags", organizeH.entryTags)
		r.Put("/{id}/tags", organizeH.setEntryTags)
		r.Post("/{id}/shares", share.create)
		r.Get("/{id}/shares", share.list)
	})

	r.Route("/api/shares/{shareId}", func(r chi.Router) {
		r.Use(requireBearer, generalLimited)
		r.Delete("/", share.revoke)
	})

	r.Route("/api/collections", func(r chi.Router) {
		r.Use(requireBearer, generalLimited)
		r.Get("/", organizeH.listCollections)
		r.Post("/", organizeH.createCollection)
		r.Patch("/{id}", organizeH.updateCollection)
		r.Delete("/{id}", organizeH.deleteCollection)
		r.Post("/move", organizeH.moveEntries)
	})

	r.Route("/api/tags", func(r chi.Router) {
		r.Use(requireBearer, generalLimited)
		r.Get("/", organizeH.listTags)
		r.Post("/", organizeH.createTag)
		r.Delete("/{id}", organizeH.deleteTag)
	})

	r.Route("/api/audit", func(r chi.Router) {
		r.Use(requireBearer, generalLimited)
		r.Get("/", auditH.list)
		r.Get("/summary", auditH.summary)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
