package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

const (
	MsgTooManyRequests     = "Too many requests from this IP, please try again later"
	MsgTooManyAuthAttempts = "Too many authentication attempts from this IP, please try again later"

	redisOpTimeout = 2 * time.Second
)

type RateLimitConfig struct {
	Window  time.Duration
	Max     int
	Message string
	// Storage holds the counters. Nil keeps them in process memory.
	Storage fiber.Storage
}

// RateLimit counts requests per client IP over a fixed window.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	message := cfg.Message
	if message == "" {
		message = MsgTooManyRequests
	}
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperror.TooManyRequests(message)
		},
		Storage: cfg.Storage,
	})
}

// RedisStorage adapts a go-redis client to fiber.Storage so limiter counters
// are shared by every instance behind a load balancer.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key(key), val, exp).Err()
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.key(key)).Err()
}

// Reset removes only the keys under this storage's prefix.
func (s *RedisStorage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Close is a no-op. The client is owned by the caller.
func (s *RedisStorage) Close() error {
	return nil
}
