// Package quota enforces the per-user daily usage limit in front of the
// pipeline, so over-quota requests never reach the model provider.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrExceeded means the caller's daily allowance is used up.
var ErrExceeded = errors.New("quota exceeded")

const counterTTL = 48 * time.Hour

// Store is the counter backend. Incr must be atomic across concurrent
// requests for the same key.
type Store interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisStore keeps counters in Redis.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("quota counter update failed: %w", err)
	}
	return incr.Val(), nil
}

// Gate applies the plan's daily limit. Paid plans are unlimited but still
// counted, so usage stays visible.
type Gate struct {
	store      Store
	freeLimit  int
	upgradeURL string
}

func NewGate(store Store, freeLimit int, upgradeURL string) *Gate {
	return &Gate{store: store, freeLimit: freeLimit, upgradeURL: upgradeURL}
}

func (g *Gate) UpgradeURL() string { return g.upgradeURL }

// Allow records one use for uid and returns ErrExceeded when a free-plan
// caller has gone over the daily limit. Counters roll over at UTC midnight.
func (g *Gate) Allow(ctx context.Context, uid, plan string, now time.Time) error {
	count, err := g.store.Incr(ctx, dayKey(uid, now), counterTTL)
	if err != nil {
		return err
	}
	if isFreePlan(plan) && count > int64(g.freeLimit) {
		return ErrExceeded
	}
	return nil
}

func isFreePlan(plan string) bool {
	switch strings.ToLower(plan) {
	case "", "free":
		return true
	}
	return false
}

func dayKey(uid string, now time.Time) string {
	return fmt.Sprintf("quota:%s:%s", uid, now.UTC().Format("2006-01-02"))
}
