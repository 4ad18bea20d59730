// Command server wires every internal service behind the JSON HTTP API
// and runs it with graceful shutdown until interrupted. Exit code 0 on a
// clean shutdown, 1 on a configuration or startup-wiring failure, 2 if
// Postgres or Redis cannot be reached. This binary never applies
// migrations itself; cmd/migrate does.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shieldvault/vaultd/internal/auditctx"
	"github.com/shieldvault/vaultd/internal/auditsvc"
	"github.com/shieldvault/vaultd/internal/authsvc"
	"github.com/shieldvault/vaultd/internal/bearer"
	"github.com/shieldvault/vaultd/internal/config"
	"github.com/shieldvault/vaultd/internal/exportbackup"
	"github.com/shieldvault/vaultd/internal/httpapi"
	"github.com/shieldvault/vaultd/internal/organize"
	"github.com/shieldvault/vaultd/internal/ratelimiter"
	"github.com/shieldvault/vaultd/internal/searchindex"
	"github.com/shieldvault/vaultd/internal/sharesvc"
	"github.com/shieldvault/vaultd/internal/store/postgres"
	"github.com/shieldvault/vaultd/internal/vaultsvc"
	"github.com/shieldvault/vaultd/pkg/audit"
	"github.com/shieldvault/vaultd/pkg/auth"
	"github.com/shieldvault/vaultd/pkg/cookie"
	"github.com/shieldvault/vaultd/pkg/email"
	"github.com/shieldvault/vaultd/pkg/httpserver"
	"github.com/shieldvault/vaultd/pkg/logger"
	"github.com/shieldvault/vaultd/pkg/opensearch"
	"github.com/shieldvault/vaultd/pkg/pg"
	"github.com/shieldvault/vaultd/pkg/redis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("server: failed to load configuration", "error", err)
		os.Exit(1)
	}

	masterKey, err := cfg.MasterKey()
	if err != nil {
		slog.Error("server: invalid master key", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.WithEnvironment(cfg.Env, "vaultd"))

	ctx := context.Background()

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.ErrorContext(ctx, "server: failed to connect to postgres", "error", err)
		os.Exit(2)
	}
	defer pool.Close()

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.ErrorContext(ctx, "server: failed to connect to redis", "error", err)
		os.Exit(2)
	}
	defer redisClient.Close()

	accounts := postgres.NewAccountStore(pool)
	oauthLinks := postgres.NewOAuthLinkStore(pool)
	refreshRecords := postgres.NewRefreshRecordStore(pool)
	vaultEntries := postgres.NewVaultEntryStore(pool)
	collections := postgres.NewCollectionStore(pool)
	tags := postgres.NewTagStore(pool)
	shares := postgres.NewShareCapabilityStore(pool)
	auditStore := postgres.NewAuditStore(pool)

	auditLogger := audit.NewLogger(auditStore,
		audit.WithUserIDExtractor(auditctx.AccountID),
		audit.WithIPExtractor(httpapi.IPExtractor),
		audit.WithUserAgentExtractor(httpapi.UserAgentExtractor),
	)

	bearerSvc, err := bearer.NewService(cfg.BearerSigningSecret, cfg.BearerTTL)
	if err != nil {
		log.ErrorContext(ctx, "server: failed to construct bearer service", "error", err)
		os.Exit(1)
	}

	authService := authsvc.New(accounts, oauthLinks, refreshRecords, bearerSvc, masterKey, cfg.RefreshTTL,
		authsvc.WithBcryptCost(cfg.BcryptCost),
		authsvc.WithAuditor(auditLogger),
		authsvc.WithLogger(log),
	)

	oauthFlows := buildOAuthFlows(cfg, redisClient, authService)

	vaultOpts := []vaultsvc.Option{
		vaultsvc.WithAuditor(auditLogger),
		vaultsvc.WithLogger(log),
	}
	if idx := buildSearchIndex(ctx, cfg, log); idx != nil {
		vaultOpts = append(vaultOpts, vaultsvc.WithSearchIndex(idx))
	}
	if backup := buildExportBackup(ctx, cfg, log); backup != nil {
		vaultOpts = append(vaultOpts, vaultsvc.WithExportBackup(backup))
	}
	vaultService := vaultsvc.New(accounts, vaultEntries, masterKey, vaultOpts...)

	organizeService := organize.New(collections, tags, vaultEntries)

	shareOpts := []sharesvc.Option{
		sharesvc.WithAuditor(auditLogger),
		sharesvc.WithLogger(log),
	}
	if notifier := buildNotifier(cfg, log); notifier != nil {
		shareOpts = append(shareOpts, sharesvc.WithNotifier(notifier))
	}
	shareService := sharesvc.New(vaultEntries, accounts, shares, masterKey, shareOpts...)

	auditService := auditsvc.New(auditStore)

	rateLimitStore := ratelimiter.NewRedisStore(redisClient, "ratelimit")
	buckets, err := ratelimiter.NewBuckets(rateLimitStore, cfg.RateLimitAuthPerWindow, cfg.RateLimitGeneralPerWindow, cfg.RateLimitWindow)
	if err != nil {
		log.ErrorContext(ctx, "server: failed to construct rate limiters", "error", err)
		os.Exit(1)
	}

	cookies, err := cookie.New([]string{cfg.CookieSecret},
		cookie.WithPath("/api/auth"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
		cookie.WithSecure(cfg.Env == "production"),
	)
	if err != nil {
		log.ErrorContext(ctx, "server: failed to construct cookie manager", "error", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:               authService,
		OAuth:              oauthFlows,
		Vault:              vaultService,
		Organize:           organizeService,
		Share:              shareService,
		Audit:              auditService,
		Bearer:             bearerSvc,
		Cookies:            cookies,
		RateLimits:         buckets,
		FrontendOrigin:     cfg.FrontendOrigin,
		FrontendSuccessURL: cfg.FrontendSuccessURL,
		Logger:             log,
	})

	srv := httpserver.NewFromConfig(cfg.HTTPServer,
		httpserver.WithAddr(":"+cfg.Port),
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("server: listening", "addr", ":"+cfg.Port, "env", cfg.Env)
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("server: shut down")
		}),
	)

	if err := srv.Run(ctx, router); err != nil {
		log.ErrorContext(ctx, "server: stopped with error", "error", err)
		os.Exit(1)
	}
}

// buildOAuthFlows wires an authsvc.OAuthFlow per configured provider. A
// provider with no client ID is simply omitted — httpapi's oauth handlers
// already return 404 for a provider key absent from this map.
func buildOAuthFlows(cfg *config.Config, redisClient goredis.UniversalClient, authService *authsvc.Service) map[string]*authsvc.OAuthFlow {
	flows := make(map[string]*authsvc.OAuthFlow)
	states := authsvc.NewStateStore(redisClient)

	if cfg.GoogleClientID != "" {
		adapter := auth.NewGoogleAdapter(auth.GoogleOAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       cfg.GoogleScopes,
			StateTTL:     cfg.GoogleStateTTL,
			VerifiedOnly: true,
		})
		flows[auth.OAuthProviderGoogle] = authsvc.NewOAuthFlow(authService, states, adapter)
	}

	if cfg.GitHubClientID != "" {
		adapter := auth.NewGitHubAdapter(auth.GitHubOAuthConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubRedirectURL,
			Scopes:       cfg.GitHubScopes,
			StateTTL:     cfg.GitHubStateTTL,
			VerifiedOnly: true,
		})
		flows[auth.OAuthProviderGithub] = authsvc.NewOAuthFlow(authService, states, adapter)
	}

	return flows
}

// buildSearchIndex wires the OpenSearch index (§ DOMAIN STACK) when
// addresses are configured; nil disables it. vaultsvc only writes to the
// index; listing and free-text search always use the Postgres ILIKE path.
func buildSearchIndex(ctx context.Context, cfg *config.Config, log *slog.Logger) vaultsvc.SearchIndex {
	if len(cfg.OpenSearchAddresses) == 0 {
		return nil
	}
	client, err := opensearch.New(ctx, opensearch.Config{
		Addresses: cfg.OpenSearchAddresses,
		Username:  cfg.OpenSearchUsername,
		Password:  cfg.OpenSearchPassword,
	})
	if err != nil {
		log.ErrorContext(ctx, "server: failed to connect to opensearch, search index disabled", "error", err)
		return nil
	}
	return searchindex.New(client, log)
}

// buildExportBackup wires the best-effort S3 export uploader when a bucket
// is configured.
func buildExportBackup(ctx context.Context, cfg *config.Config, log *slog.Logger) vaultsvc.ExportBackup {
	if cfg.S3ExportBucket == "" {
		return nil
	}
	uploader, err := exportbackup.New(ctx, exportbackup.Config{
		Bucket: cfg.S3ExportBucket,
		Region: cfg.S3Region,
	})
	if err != nil {
		log.ErrorContext(ctx, "server: failed to construct export backup uploader, exports will not be archived", "error", err)
		return nil
	}
	return uploader
}

// buildNotifier wires the share-access notification sender: Postmark when
// a server token is configured, otherwise a local dev file sender so the
// notification path is still exercised outside production.
func buildNotifier(cfg *config.Config, log *slog.Logger) sharesvc.Notifier {
	if cfg.PostmarkServerToken == "" {
		return email.NewDevSender(cfg.DevMailDir)
	}
	sender, err := email.NewPostmarkClient(email.Config{
		PostmarkServerToken:  cfg.PostmarkServerToken,
		PostmarkAccountToken: cfg.PostmarkAccountToken,
		SenderEmail:          cfg.SenderEmail,
		SupportEmail:         cfg.SupportEmail,
	})
	if err != nil {
		log.Error("server: failed to construct postmark client, falling back to dev sender", "error", err)
		return email.NewDevSender(cfg.DevMailDir)
	}
	return sender
}
