package hydro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "hydro:cache:version"

// Cache wraps Redis based caching of admin-scoped backend reads with a global
// version so that write actions can invalidate every entry at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached entry by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

// AdminReader is the subset of the backend API that is safe to share between
// admin sessions.
type AdminReader interface {
	AdminCharges(ctx context.Context, cred Credential) ([]ChargeSummary, error)
	TopCustomers(ctx context.Context, cred Credential, r DateRange) ([]TopCustomer, error)
}

// CachedReader serves AdminReader calls through a Cache. Calls made with a
// non-admin credential bypass the cache entirely.
type CachedReader struct {
	next  AdminReader
	cache *Cache
}

// NewCachedReader wraps next with cache.
func NewCachedReader(next AdminReader, cache *Cache) *CachedReader {
	return &CachedReader{next: next, cache: cache}
}

// AdminCharges implements AdminReader.
func (r *CachedReader) AdminCharges(ctx context.Context, cred Credential) ([]ChargeSummary, error) {
	if !cred.IsAdmin() {
		return r.next.AdminCharges(ctx, cred)
	}
	key, err := r.cache.BuildKey(ctx, "hydro", "charges")
	if err != nil {
		return nil, err
	}
	var out []ChargeSummary
	err = r.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return r.next.AdminCharges(ctx, cred)
	})
	return out, err
}

// TopCustomers implements AdminReader.
func (r *CachedReader) TopCustomers(ctx context.Context, cred Credential, dr DateRange) ([]TopCustomer, error) {
	if !cred.IsAdmin() {
		return r.next.TopCustomers(ctx, cred, dr)
	}
	key, err := r.cache.BuildKey(ctx, "hydro", "top", dr.Start, dr.End)
	if err != nil {
		return nil, err
	}
	var out []TopCustomer
	err = r.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return r.next.TopCustomers(ctx, cred, dr)
	})
	return out, err
}

// Invalidate drops every cached admin read.
func (r *CachedReader) Invalidate(ctx context.Context) error {
	return r.cache.Bump(ctx)
}
