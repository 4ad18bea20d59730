package ratelimiter

import (
	"time"

	"github.com/shieldvault/vaultd/pkg/ratelimit"
)

// Buckets holds the two rate-limit buckets required by §4.3: a strict
// bucket for auth operations (register/login/refresh/OAuth), and a looser
// bucket for everything else, both keyed by client address.
type Buckets struct {
	Auth    ratelimit.Limiter
	General ratelimit.Limiter
}

// NewBuckets builds both buckets against a shared Redis-backed store.
func NewBuckets(store *RedisStore, authLimit, generalLimit int, window time.Duration) (*Buckets, error) {
	auth, err := ratelimit.NewSlidingWindow(store, authLimit, window)
	if err != nil {
		return nil, err
	}
	general, err := ratelimit.NewSlidingWindow(store, generalLimit, window)
	if err != nil {
		return nil, err
	}
	return &Buckets{Auth: auth, General: general}, nil
}
