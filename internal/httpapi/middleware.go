package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shieldvault/vaultd/internal/bearer"
	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/pkg/clientip"
	"github.com/shieldvault/vaultd/pkg/ratelimit"
	"github.com/shieldvault/vaultd/pkg/useragent"
)

// maxRequestBody caps every request body at 10 KiB (§4.9).
const maxRequestBody = 10 * 1024

// limitBody wraps the request body in http.MaxBytesReader so an oversized
// payload fails the JSON decode rather than being read in full.
func limitBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// annotateRequest records the caller's address and parsed user agent on
// the request context so downstream audit writes can attach them without
// re-parsing the headers.
func annotateRequest(next http.Handler) http.Handler {
	return clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua, err := useragent.Parse(r.UserAgent()); err == nil {
			r = r.WithContext(withUserAgent(r.Context(), ua))
		}
		next.ServeHTTP(w, r)
	}))
}

// requireAuth verifies the Authorization bearer credential and attaches
// the resolved principal to the request context. An expired credential
// and a merely invalid one surface distinct codes, per §7.
func requireAuth(bearerSvc *bearer.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				writeError(w, r, logger, domain.ErrUnauthenticated)
				return
			}
			token := strings.TrimPrefix(header, prefix)

			claims, err := bearerSvc.Verify(token)
			if err != nil {
				writeError(w, r, logger, err)
				return
			}

			ctx := withPrincipal(r.Context(), principal{AccountID: claims.AccountID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimited enforces limiter against the caller's address, answering 429
// with a Retry-After header on exhaustion (§4.3/§7).
func rateLimited(limiter ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientip.GetIPFromContext(r.Context())
			if key == "" {
				key = clientip.GetIP(r)
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.ErrorContext(r.Context(), "rate limiter check failed", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			if !result.Allowed {
				w.Header().Set("Retry-After", result.RetryAfter().String())
				writeError(w, r, logger, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cors restricts cross-origin access to the single configured frontend
// origin, with credentials enabled so the refresh cookie can be sent.
// Hand-rolled against net/http: no CORS middleware appears anywhere in the
// example pack's go.mod files (see DESIGN.md).
func cors(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && origin == allowedOrigin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
