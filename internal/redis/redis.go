// session revocation and the live bus snapshot cache
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

type Store interface {
	Ping(ctx context.Context) error
	// Revoke marks a session id as logged out until ttl elapses
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns ErrMiss when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)
}

func revokedKey(sessionID string) string {
	return fmt.Sprintf("session:revoked:%s", sessionID)
}

type Client struct {
	rdb *goredis.Client
}

var _ Store = (*Client)(nil)

func NewClient(address, username, password string) *Client {
	return &Client{rdb: goredis.NewClient(&goredis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, revokedKey(sessionID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w", sessionID, err)
	}
	return nil
}

func (c *Client) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Client) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

type entry struct {
	value   []byte
	expires time.Time
}

// expired entries nobody reads again are dropped by Put at most this often
const sweepInterval = time.Minute

// MemoryStore is the process-local fallback used when no redis address is configured.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]entry{}, now: time.Now}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return m.Put(ctx, revokedKey(sessionID), []byte("1"), ttl)
}

func (m *MemoryStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	_, err := m.Get(ctx, revokedKey(sessionID))
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	return err == nil, err
}

// a zero ttl keeps the value until it is overwritten
func (m *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweep(now)
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// sweep expects m.mu to be held.
func (m *MemoryStore) sweep(now time.Time) {
	for key, e := range m.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(m.entries, key)
		}
	}
	m.lastSweep = now
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}
