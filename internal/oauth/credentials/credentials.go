// Package credentials supplies per-provider OAuth client credentials
// through a small time-boxed cache, so adapters always see reasonably
// fresh values without a lookup per request.
package credentials

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Credentials identifies this application to one provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Source produces the current credentials for a provider.
type Source interface {
	Credentials(ctx context.Context, provider string) (Credentials, error)
}

// StaticSource serves credentials from a fixed map, typically built from
// configuration at startup.
type StaticSource map[string]Credentials

func (s StaticSource) Credentials(_ context.Context, provider string) (Credentials, error) {
	c, ok := s[provider]
	if !ok || c.ClientID == "" {
		return Credentials{}, fmt.Errorf("credentials: provider %s not configured", provider)
	}
	return c, nil
}

// cacheTTL bounds staleness; a refreshed upstream value is observed
// within one TTL.
const cacheTTL = 5 * time.Minute

type cacheEntry struct {
	creds     Credentials
	fetchedAt time.Time
}

// Cache wraps a Source with per-provider TTL caching. Safe for
// concurrent readers; entries are refreshed wholesale on expiry.
type Cache struct {
	source Source
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCache(source Source) *Cache {
	return &Cache{
		source:  source,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached credentials for provider, consulting the source
// when the entry is missing or older than the TTL.
func (c *Cache) Get(ctx context.Context, provider string) (Credentials, error) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[provider]
	c.mu.RUnlock()
	if ok && now.Sub(entry.fetchedAt) < cacheTTL {
		return entry.creds, nil
	}

	creds, err := c.source.Credentials(ctx, provider)
	if err != nil {
		return Credentials{}, err
	}

	c.mu.Lock()
	c.entries[provider] = cacheEntry{creds: creds, fetchedAt: now}
	c.mu.Unlock()

	return creds, nil
}
