package payment

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/babajiachar/storefront-api/internal/common"
)

// ReplayGuard deduplicates webhook deliveries by body hash. Razorpay retries
// deliveries, so a repeated body within the TTL is acknowledged without
// reprocessing.
type ReplayGuard struct {
	R   *redis.Client
	TTL time.Duration
}

// FirstDelivery claims the body hash and reports whether this is the first
// time it was seen. A Redis failure counts as a first delivery; settlement is
// idempotent downstream so the worst case is a wasted no-op.
func (g *ReplayGuard) FirstDelivery(ctx context.Context, provider string, body []byte) bool {
	if g == nil || g.R == nil {
		return true
	}
	ttl := g.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ok, err := g.R.SetNX(ctx, replayKey(provider, body), "1", ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// Release drops a claimed body hash. Called when processing fails after the
// claim so the provider's retry of the same body is handled, not swallowed
// as a duplicate.
func (g *ReplayGuard) Release(ctx context.Context, provider string, body []byte) {
	if g == nil || g.R == nil {
		return
	}
	g.R.Del(ctx, replayKey(provider, body))
}

func replayKey(provider string, body []byte) string {
	return "wh:" + provider + ":" + common.Sha256Hex(body)
}
