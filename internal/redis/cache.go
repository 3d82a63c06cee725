package redisclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clinicbook-service/internal/booking"
)

const availablePrefix = "slots:available:"

// ListingCache caches availability listings in Redis with a short TTL. It
// is strictly best effort: any Redis error is treated as a miss and reads
// fall through to the store. The reserve path never consults it, so a
// stale entry only delays a listing refresh.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewListingCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *ListingCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListingCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (c *ListingCache) GetAvailable(ctx context.Context, specialty string) ([]booking.Slot, bool) {
	raw, err := c.client.Get(ctx, availablePrefix+specialty).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("listing cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var slots []booking.Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		c.log.Warn("listing cache entry corrupt, dropping", zap.Error(err))
		_ = c.client.Del(ctx, availablePrefix+specialty).Err()
		return nil, false
	}

	return slots, true
}

func (c *ListingCache) SetAvailable(ctx context.Context, specialty string, slots []booking.Slot) {
	raw, err := json.Marshal(slots)
	if err != nil {
		c.log.Warn("marshal listing for cache", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, availablePrefix+specialty, raw, c.ttl).Err(); err != nil {
		c.log.Debug("listing cache write failed", zap.Error(err))
	}
}

// InvalidateAvailable drops every cached availability listing. Called after
// a successful reservation or slot creation so listings converge quickly;
// the TTL bounds staleness even when this fails.
func (c *ListingCache) InvalidateAvailable(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, availablePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Debug("listing cache invalidation failed", zap.Error(err))
			return
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Debug("listing cache scan failed", zap.Error(err))
	}
}
