package availability

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// Cache holds day snapshots for the read-mostly grid. It is advisory only:
// write paths never consult it.
//
// Every Invalidate bumps the date's generation, and Set stores a snapshot only
// while the generation it was loaded under is current, so a write landing
// between load and fill cannot leave a stale entry behind.
type Cache interface {
	Get(ctx context.Context, date time.Time) (*Day, bool)
	// Generation reports the date's current generation; ok is false when it cannot be read.
	Generation(ctx context.Context, date time.Time) (gen int64, ok bool)
	Set(ctx context.Context, day Day, gen int64)
	Invalidate(ctx context.Context, date time.Time)
}

// NoopCache is used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, time.Time) (*Day, bool)          { return nil, false }
func (NoopCache) Generation(context.Context, time.Time) (int64, bool) { return 0, false }
func (NoopCache) Set(context.Context, Day, int64)                     {}
func (NoopCache) Invalidate(context.Context, time.Time)               {}

var errStaleSnapshot = errors.New("availability snapshot outdated")

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache returns a Redis-backed Cache, or NoopCache when client is nil.
func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	if client == nil {
		return NoopCache{}
	}
	return &redisCache{client: client, prefix: "availability:day:", ttl: ttl}
}

func (c *redisCache) key(date time.Time) string {
	return c.prefix + slot.FormatDate(date)
}

func (c *redisCache) genKey(date time.Time) string {
	return c.key(date) + ":gen"
}

func (c *redisCache) Get(ctx context.Context, date time.Time) (*Day, bool) {
	raw, err := c.client.Get(ctx, c.key(date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Ctx(ctx).Warn().Err(err).Msg("Availability cache read failed")
		}
		return nil, false
	}
	var day Day
	if err := json.Unmarshal(raw, &day); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Availability cache entry corrupt")
		return nil, false
	}
	return &day, true
}

func (c *redisCache) Generation(ctx context.Context, date time.Time) (int64, bool) {
	gen, err := c.client.Get(ctx, c.genKey(date)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		log.Ctx(ctx).Warn().Err(err).Msg("Availability cache generation read failed")
		return 0, false
	}
	return gen, true
}

func (c *redisCache) Set(ctx context.Context, day Day, gen int64) {
	raw, err := json.Marshal(day)
	if err != nil {
		return
	}
	genKey := c.genKey(day.Date)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(day.Date), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil, errors.Is(err, errStaleSnapshot), errors.Is(err, redis.TxFailedErr):
	default:
		log.Ctx(ctx).Warn().Err(err).Msg("Availability cache write failed")
	}
}

func (c *redisCache) Invalidate(ctx context.Context, date time.Time) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(date))
		if c.ttl > 0 {
			pipe.Expire(ctx, c.genKey(date), 2*c.ttl)
		}
		pipe.Del(ctx, c.key(date))
		return nil
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("date", slot.FormatDate(date)).Msg("Availability cache invalidation failed")
	}
}
