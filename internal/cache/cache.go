package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is the caching and coordination interface. All Redis operations go
// through here. Implementations must be safe for concurrent use.
type Cache interface {
	Ping(ctx context.Context) error

	SetSignupCode(ctx context.Context, requestID uuid.UUID, code string, ttl time.Duration) error
	GetSignupCode(ctx context.Context, requestID uuid.UUID) (string, bool, error)
	DeleteSignupCode(ctx context.Context, requestID uuid.UUID) error

	// AcquireApprovalLock takes an exclusive lock on approving one request,
	// preventing two concurrent approvals from provisioning the same tenant
	// twice. Returns false when another approval already holds the lock.
	AcquireApprovalLock(ctx context.Context, requestID uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseApprovalLock(ctx context.Context, requestID uuid.UUID) error

	// SetProvisioningPhase records the last phase a provisioning run reached,
	// so an operator can reconcile a run that failed between the two stores.
	SetProvisioningPhase(ctx context.Context, requestID uuid.UUID, phase string, ttl time.Duration) error
	GetProvisioningPhase(ctx context.Context, requestID uuid.UUID) (string, bool, error)

	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) SetSignupCode(ctx context.Context, requestID uuid.UUID, code string, ttl time.Duration) error {
	return c.client.Set(ctx, SignupCodeKey(requestID), code, ttl).Err()
}

func (c *RedisCache) GetSignupCode(ctx context.Context, requestID uuid.UUID) (string, bool, error) {
	val, err := c.client.Get(ctx, SignupCodeKey(requestID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) DeleteSignupCode(ctx context.Context, requestID uuid.UUID) error {
	return c.client.Del(ctx, SignupCodeKey(requestID)).Err()
}

func (c *RedisCache) AcquireApprovalLock(ctx context.Context, requestID uuid.UUID, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, ApprovalLockKey(requestID), "1", ttl).Result()
}

func (c *RedisCache) ReleaseApprovalLock(ctx context.Context, requestID uuid.UUID) error {
	return c.client.Del(ctx, ApprovalLockKey(requestID)).Err()
}

func (c *RedisCache) SetProvisioningPhase(ctx context.Context, requestID uuid.UUID, phase string, ttl time.Duration) error {
	return c.client.Set(ctx, ProvisioningPhaseKey(requestID), phase, ttl).Err()
}

func (c *RedisCache) GetProvisioningPhase(ctx context.Context, requestID uuid.UUID) (string, bool, error) {
	val, err := c.client.Get(ctx, ProvisioningPhaseKey(requestID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
