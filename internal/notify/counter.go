package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter caches per-user unread counts. A miss reports ok == false.
type Counter interface {
	Get(ctx context.Context, userID int64) (n int, ok bool, err error)
	Set(ctx context.Context, userID int64, n int) error
	Invalidate(ctx context.Context, userID int64) error
}

// MemoryCounter is a process-local Counter.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[int64]int
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: map[int64]int{}}
}

func (m *MemoryCounter) Get(_ context.Context, userID int64) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[userID]
	return n, ok, nil
}

func (m *MemoryCounter) Set(_ context.Context, userID int64, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[userID] = n
	return nil
}

func (m *MemoryCounter) Invalidate(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, userID)
	return nil
}

// RedisCounter keeps unread counts in Redis or Dragonfly so several server
// processes share them.
type RedisCounter struct {
	Client *redis.Client
	TTL    time.Duration
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// NewRedisCounter connects to url and checks the connection.
func NewRedisCounter(ctx context.Context, url string, ttl time.Duration) (*RedisCounter, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}
	return &RedisCounter{Client: client, TTL: ttl}, nil
}

func unreadKey(userID int64) string {
	return "rpsplanner:unread:" + strconv.FormatInt(userID, 10)
}

func (c *RedisCounter) Get(ctx context.Context, userID int64) (int, bool, error) {
	n, err := c.Client.Get(ctx, unreadKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *RedisCounter) Set(ctx context.Context, userID int64, n int) error {
	return c.Client.Set(ctx, unreadKey(userID), n, c.TTL).Err()
}

func (c *RedisCounter) Invalidate(ctx context.Context, userID int64) error {
	return c.Client.Del(ctx, unreadKey(userID)).Err()
}

// Close shuts down the client.
func (c *RedisCounter) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *RedisCounter) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
