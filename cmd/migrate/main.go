// Command migrate applies the Postgres schema migrations the server needs
// before it can accept traffic. Exit code 0 means the schema is up to date;
// exit code 1 covers configuration failures; exit code 2 means the
// migration run itself failed (connection refused, a bad migration file,
// a lock held by a concurrent deploy).
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/shieldvault/vaultd/internal/config"
	"github.com/shieldvault/vaultd/pkg/logger"
	"github.com/shieldvault/vaultd/pkg/pg"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("migrate: failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.WithEnvironment(cfg.Env, "vaultd-migrate"))

	ctx := context.Background()
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.ErrorContext(ctx, "migrate: failed to connect to postgres", "error", err)
		os.Exit(2)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
		log.ErrorContext(ctx, "migrate: failed to apply migrations", "error", err)
		os.Exit(2)
	}

	log.InfoContext(ctx, "migrate: schema is up to date")
}
