package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache shuttles scan images to the worker and mirrors job status so pollers
// can read without hitting Postgres. Implementations must be safe for
// concurrent use.
type Cache interface {
	Ping(ctx context.Context) error
	PutScanImage(ctx context.Context, jobID uuid.UUID, data []byte, mimeType string, ttl time.Duration) error
	GetScanImage(ctx context.Context, jobID uuid.UUID) ([]byte, string, bool, error)
	DeleteScanImage(ctx context.Context, jobID uuid.UUID) error
	SetJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error)
}

// RedisCache implements Cache using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// PutScanImage stores the raw image bytes and their MIME type under the job's
// keys with a shared expiry. The worker reads the blob once and deletes it.
func (c *RedisCache) PutScanImage(ctx context.Context, jobID uuid.UUID, data []byte, mimeType string, ttl time.Duration) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, ScanImageKey(jobID), data, ttl)
	pipe.Set(ctx, ScanMimeKey(jobID), mimeType, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) GetScanImage(ctx context.Context, jobID uuid.UUID) ([]byte, string, bool, error) {
	data, err := c.client.Get(ctx, ScanImageKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	mimeType, err := c.client.Get(ctx, ScanMimeKey(jobID)).Result()
	if err != nil && err != redis.Nil {
		return nil, "", false, err
	}
	return data, mimeType, true, nil
}

func (c *RedisCache) DeleteScanImage(ctx context.Context, jobID uuid.UUID) error {
	return c.client.Del(ctx, ScanImageKey(jobID), ScanMimeKey(jobID)).Err()
}

func (c *RedisCache) SetJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error {
	return c.client.Set(ctx, JobStatusKey(jobID), status, ttl).Err()
}

func (c *RedisCache) GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error) {
	val, err := c.client.Get(ctx, JobStatusKey(jobID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
