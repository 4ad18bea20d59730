// Package config aggregates every environment-driven setting this service
// needs into one struct, loaded the way pkg/config does in the teacher
// repo: github.com/caarlos0/env/v11 struct tags, with .env loading via
// github.com/joho/godotenv for local development.
package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/shieldvault/vaultd/pkg/config"
	"github.com/shieldvault/vaultd/pkg/httpserver"
	"github.com/shieldvault/vaultd/pkg/pg"
	"github.com/shieldvault/vaultd/pkg/redis"
)

// Config is the top-level configuration for cmd/server and cmd/migrate.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// MasterKeyB64 is the base64-encoded 32-byte master key (§4.1). The
	// server refuses to start without exactly 32 raw bytes decoded.
	MasterKeyB64 string `env:"VAULT_MASTER_KEY,required"`

	BearerSigningSecret string        `env:"BEARER_SIGNING_SECRET,required"`
	BearerTTL           time.Duration `env:"BEARER_TTL" envDefault:"15m"`
	RefreshTTL          time.Duration `env:"REFRESH_TTL" envDefault:"720h"`
	BcryptCost          int           `env:"BCRYPT_COST" envDefault:"12"`

	// CookieSecret signs/encrypts the refresh cookie; kept distinct from
	// BearerSigningSecret so rotating one never invalidates the other.
	CookieSecret string `env:"COOKIE_SECRET,required"`

	FrontendOrigin    string `env:"FRONTEND_ORIGIN,required"`
	FrontendSuccessURL string `env:"FRONTEND_OAUTH_SUCCESS_URL" envDefault:"/"`

	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `env:"GOOGLE_REDIRECT_URL"`
	GoogleScopes       []string      `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/userinfo.email"`
	GoogleStateTTL     time.Duration `env:"GOOGLE_OAUTH_STATE_TTL" envDefault:"10m"`

	GitHubClientID     string        `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL  string        `env:"GITHUB_REDIRECT_URL"`
	GitHubScopes       []string      `env:"GITHUB_OAUTH_SCOPES" envSeparator:"," envDefault:"user:email"`
	GitHubStateTTL     time.Duration `env:"GITHUB_OAUTH_STATE_TTL" envDefault:"10m"`

	RateLimitAuthPerWindow    int           `env:"RATE_LIMIT_AUTH_PER_WINDOW" envDefault:"20"`
	RateLimitGeneralPerWindow int           `env:"RATE_LIMIT_GENERAL_PER_WINDOW" envDefault:"100"`
	RateLimitWindow           time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`

	MaxRequestBodyBytes int64 `env:"MAX_REQUEST_BODY_BYTES" envDefault:"10240"`

	// OpenSearch is an optional accelerator (§ DOMAIN STACK); empty
	// Addresses disables it and the search engine falls back to Postgres
	// ILIKE.
	OpenSearchAddresses []string `env:"OPENSEARCH_ADDRESSES" envSeparator:","`
	OpenSearchUsername  string   `env:"OPENSEARCH_USERNAME"`
	OpenSearchPassword  string   `env:"OPENSEARCH_PASSWORD"`
	OpenSearchIndex     string   `env:"OPENSEARCH_INDEX" envDefault:"vault_entries"`

	// S3 export backup is best-effort; empty bucket disables it.
	S3ExportBucket string `env:"EXPORT_S3_BUCKET"`
	S3Region       string `env:"EXPORT_S3_REGION" envDefault:"us-east-1"`

	// Postmark is best-effort share-access notification; an empty server
	// token disables it and the dev file-based sender is used instead.
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@vaultd.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@vaultd.local"`
	DevMailDir           string `env:"DEV_MAIL_DIR" envDefault:"./tmp/mail"`

	Postgres   pg.Config
	Redis      redis.Config
	HTTPServer httpserver.Config
}

// Load reads the full configuration from the environment, per pkg/config's
// cached-singleton Load[T] pattern.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// MasterKey decodes and validates the 32-byte master key. The server MUST
// refuse to start (exit code 1, per §6) if this fails.
func (c *Config) MasterKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.MasterKeyB64)
	if err != nil {
		return nil, fmt.Errorf("config: VAULT_MASTER_KEY is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("config: VAULT_MASTER_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
