package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

// Options configures the shared connection. URL is a redis:// URL; Password,
// when set, overrides any credential embedded in the URL.
type Options struct {
	URL         string
	Password    string
	PingTimeout time.Duration
}

var client *redis.Client

// Connect establishes the shared client used by the idempotency middleware
// and verifies the connection with a bounded ping.
func Connect(opts Options) error {
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.Password != "" {
		parsed.Password = opts.Password
	}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	c := redis.NewClient(parsed)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("pinging redis: %w", err)
	}

	client = c
	return nil
}

// Close releases the shared client.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// SetClient replaces the shared client (used for testing)
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the shared client
func GetClient() *redis.Client {
	return client
}

// Set stores a key-value pair with expiration
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value by key
func Get(ctx context.Context, key string) (string, error) {
	return client.Get(ctx, key).Result()
}

// Del removes a key
func Del(ctx context.Context, key string) error {
	return client.Del(ctx, key).Err()
}

// SetNX sets a key only if it does not exist
func SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return client.SetNX(ctx, key, value, expiration).Result()
}
