package cache

import (
	"context"
	"time"
)

// Store is the read-cache capability used by the scheduling service. Values
// are JSON-encoded; invalidation is the consistency mechanism, TTLs are only
// hygiene against abandoned keys.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}
