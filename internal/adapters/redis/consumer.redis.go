// Package redis provides the Redis repository used as the idempotency
// fast path and the processed-command projection cache. Postgres stays
// authoritative; every answer served from here can be rebuilt from it.
package redis

import (
	"context"
	"errors"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	libRedis "github.com/LerianStudio/lib-commons/v2/commons/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/CroesusLabs/croesus/internal/services"
)

// RedisRepository provides an interface for redis operations.
type RedisRepository interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// RedisConsumerRepository is a Redis implementation of RedisRepository.
type RedisConsumerRepository struct {
	conn *libRedis.RedisConnection
}

// NewConsumerRedis returns a new instance of RedisConsumerRepository using the given Redis connection.
func NewConsumerRedis(rc *libRedis.RedisConnection) *RedisConsumerRepository {
	r := &RedisConsumerRepository{
		conn: rc,
	}

	if _, err := r.conn.GetClient(context.Background()); err != nil {
		panic("Failed to connect on redis")
	}

	return r
}

// Set stores a value with a ttl, overwriting any previous value.
func (rr *RedisConsumerRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "redis.set")
	defer span.End()

	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return err
	}

	statusCMD := rds.Set(ctx, key, value, ttl)
	if statusCMD.Err() != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to set on redis", statusCMD.Err())

		logger.Errorf("Failed to set key %v on redis: %v", key, statusCMD.Err())

		return statusCMD.Err()
	}

	return nil
}

// SetNX stores a value only when the key does not exist yet, reporting
// whether this call won the key.
func (rr *RedisConsumerRepository) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "redis.set_nx")
	defer span.End()

	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return false, err
	}

	success, err := rds.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to set nx on redis", err)

		logger.Errorf("Failed to set nx key %v on redis: %v", key, err)

		return false, err
	}

	return success, nil
}

// Get retrieves a value. A missing key maps to the repository miss sentinel
// so callers fall back to the authoritative store.
func (rr *RedisConsumerRepository) Get(ctx context.Context, key string) (string, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "redis.get")
	defer span.End()

	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return "", err
	}

	val, err := rds.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", services.ErrDatabaseItemNotFound
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to get on redis", err)

		return "", err
	}

	return val, nil
}

// Del removes a key.
func (rr *RedisConsumerRepository) Del(ctx context.Context, key string) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "redis.del")
	defer span.End()

	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return err
	}

	if _, err := rds.Del(ctx, key).Result(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to del on redis", err)

		logger.Errorf("Failed to del key %v on redis: %v", key, err)

		return err
	}

	return nil
}
