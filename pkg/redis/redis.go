package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prohmpiriya/decaying-tickets/pkg/retry"
	"github.com/redis/go-redis/v9"
)

// Nil is returned by reads on missing keys
const Nil = redis.Nil

// Script is a Lua script addressed by its SHA with an EVAL fallback
type Script = redis.Script

// NewScript wraps Lua source for use with RunScript
func NewScript(src string) *Script {
	return redis.NewScript(src)
}

// Config holds Redis connection configuration
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Connect attempts after the first failed ping
	MaxRetries    int
	RetryInterval time.Duration
}

// DefaultConfig returns settings for a local inventory store
func DefaultConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          6379,
		PoolSize:      50,
		MinIdleConns:  5,
		DialTimeout:   5 * time.Second,
		ReadTimeout:   time.Second,
		WriteTimeout:  time.Second,
		MaxRetries:    3,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Addr returns host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Client is the Redis connection shared by seat counters, the narrative
// cache and the idempotency store.
type Client struct {
	rdb *redis.Client
}

// NewClient dials Redis and waits for the first successful PING
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	res := retry.New(&retry.Config{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInterval,
		MaxInterval:     cfg.RetryInterval,
		Multiplier:      1,
	}).Do(ctx, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if res.Err != nil {
		rdb.Close()
		if res.LastError == nil {
			return nil, res.Err
		}
		return nil, fmt.Errorf("redis %s unreachable after %d attempts: %w", cfg.Addr(), res.Attempts, res.LastError)
	}
	return &Client{rdb: rdb}, nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck pings Redis
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// LoadScripts pushes scripts into the server cache so the first
// reservation does not pay for an EVAL.
func (c *Client) LoadScripts(ctx context.Context, scripts ...*Script) error {
	for _, s := range scripts {
		if err := s.Load(ctx, c.rdb).Err(); err != nil {
			return fmt.Errorf("failed to load script %s: %w", s.Hash(), err)
		}
	}
	return nil
}

// RunScript runs s by SHA, reloading it if the server cache was flushed
func (c *Client) RunScript(ctx context.Context, s *Script, keys []string, args ...interface{}) *redis.Cmd {
	return s.Run(ctx, c.rdb, keys, args...)
}

func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	return c.rdb.Get(ctx, key)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return c.rdb.Set(ctx, key, value, expiration)
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	return c.rdb.SetNX(ctx, key, value, expiration)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return c.rdb.Del(ctx, keys...)
}

func (c *Client) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	return c.rdb.HGetAll(ctx, key)
}

// FlushScripts empties the server script cache
func (c *Client) FlushScripts(ctx context.Context) error {
	return c.rdb.ScriptFlush(ctx).Err()
}
