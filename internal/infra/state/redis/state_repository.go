// Package redisstate implements StateRepository on Redis: the pub/sub
// invalidation channel, sweep bookkeeping, and rate limiting.
package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/oosca/comeals-backend/internal/repository"
)

// RedisStateRepository is the Redis implementation of StateRepository.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "cm:"
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisStateRepository) mealChannel(mealID uint) string {
	return fmt.Sprintf("%smeal:%d:updates", r.keyPrefix, mealID)
}

func (r *RedisStateRepository) sweepKey(communityID uint) string {
	return fmt.Sprintf("%ssweep:%d", r.keyPrefix, communityID)
}

func (r *RedisStateRepository) rateLimitKey(key string) string {
	return fmt.Sprintf("%sratelimit:%s", r.keyPrefix, key)
}

// PublishUpdate fans the invalidation message out to every instance with
// subscribers on the meal's channel.
func (r *RedisStateRepository) PublishUpdate(ctx context.Context, update repository.MealUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("redis: marshal meal update: %w", err)
	}
	channel := r.mealChannel(update.MealID)
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish to %s: %w", channel, err)
	}
	return nil
}

// SubscribeUpdates subscribes to one meal's channel and forwards decoded
// messages until the context is cancelled. Malformed messages are dropped
// with a warning rather than killing the subscription.
func (r *RedisStateRepository) SubscribeUpdates(ctx context.Context, mealID uint) (<-chan repository.MealUpdate, error) {
	channel := r.mealChannel(mealID)
	pubsub := r.client.Subscribe(ctx, channel)

	// Force the subscription onto the wire before returning, so callers
	// never miss messages published right after this call.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe to %s: %w", channel, err)
	}

	updates := make(chan repository.MealUpdate, 16)
	go func() {
		defer close(updates)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var update repository.MealUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					logrus.WithError(err).WithField("channel", channel).Warn("Dropping malformed meal update")
					continue
				}
				select {
				case updates <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return updates, nil
}

func (r *RedisStateRepository) GetLastSweepTime(ctx context.Context, communityID uint) (time.Time, error) {
	val, err := r.client.Get(ctx, r.sweepKey(communityID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redis: get last sweep time for community %d: %w", communityID, err)
	}
	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: parse sweep time '%s': %w", val, err)
	}
	return at, nil
}

func (r *RedisStateRepository) SetLastSweepTime(ctx context.Context, communityID uint, at time.Time, ttl time.Duration) error {
	err := r.client.Set(ctx, r.sweepKey(communityID), at.Format(time.RFC3339Nano), ttl).Err()
	if err != nil {
		return fmt.Errorf("redis: set last sweep time for community %d: %w", communityID, err)
	}
	return nil
}

// CheckRateLimit counts requests for key inside a fixed window. Returns
// true when the request is over the limit.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := r.rateLimitKey(key)

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: rate limit check for %s: %w", key, err)
	}
	return incr.Val() > int64(limit), nil
}
