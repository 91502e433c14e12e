package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyPrefix = "session:"

// maxRelativeExp is the largest expiration memcached treats as relative seconds.
const maxRelativeExp = 30 * 24 * 60 * 60

// maxItemSize is the default memcached item limit less room for the key and flags.
const maxItemSize = 1<<20 - 1024

// ErrSessionTooLarge is returned when the encoded session exceeds the memcached item limit.
var ErrSessionTooLarge = errors.New("session too large for memcached")

// MemcachedStore implements Store using memcached with JSON-encoded values.
type MemcachedStore struct {
	client *memcache.Client
	ttl    time.Duration
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// use client defaults if zero; ttl <= 0 uses DefaultTTL.
func NewMemcachedStore(addrs string, ttl, timeout time.Duration, maxIdleConns int) (*MemcachedStore, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemcachedStore{client: client, ttl: ttl}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *MemcachedStore) key(id string) string {
	return keyPrefix + id
}

// expiration converts ttl to memcached relative seconds.
func expiration(ttl time.Duration) int32 {
	sec := int32(ttl.Seconds())
	if sec <= 0 || sec > maxRelativeExp {
		return int32(DefaultTTL.Seconds())
	}
	return sec
}

// Get implements Store.Get.
func (c *MemcachedStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, ErrInvalidID
	}
	item, err := c.client.Get(c.key(id))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("memcached get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(item.Value, &s); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}
	return &s, true, nil
}

// Set implements Store.Set.
func (c *MemcachedStore) Set(ctx context.Context, id string, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidID
	}
	v := *s
	v.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if len(raw) > maxItemSize {
		return fmt.Errorf("%w: %d bytes", ErrSessionTooLarge, len(raw))
	}
	err = c.client.Set(&memcache.Item{
		Key:        c.key(id),
		Value:      raw,
		Expiration: expiration(c.ttl),
	})
	if err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}

// Delete implements Store.Delete.
func (c *MemcachedStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.client.Delete(c.key(id)); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("memcached delete: %w", err)
	}
	return nil
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedStore) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedStore) Close() error {
	return c.client.Close()
}
