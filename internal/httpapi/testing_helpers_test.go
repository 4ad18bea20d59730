package httpapi

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shieldvault/vaultd/pkg/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLimiter is an always-allow (or always-deny, if denyAfter is reached)
// rate limiter double for exercising the middleware in isolation.
type fakeLimiter struct {
	denyAfter int
	calls     int
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	return f.AllowN(ctx, key, 1)
}

func (f *fakeLimiter) AllowN(ctx context.Context, key string, n int) (*ratelimit.Result, error) {
	f.calls++
	if f.denyAfter > 0 && f.calls > f.denyAfter {
		return &ratelimit.Result{Allowed: false, ResetAt: time.Now().Add(time.Second)}, nil
	}
	return &ratelimit.Result{Allowed: true}, nil
}

func (f *fakeLimiter) Status(ctx context.Context, key string) (*ratelimit.Result, error) {
	return &ratelimit.Result{Allowed: true}, nil
}

func (f *fakeLimiter) Reset(ctx context.Context, key string) error {
	f.calls = 0
	return nil
}

var _ ratelimit.Limiter = (*fakeLimiter)(nil)
