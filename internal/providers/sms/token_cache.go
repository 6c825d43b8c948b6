package sms

import (
	"context"
	"sync"
	"time"

	"github.com/elclub/paquetes/internal/clock"
)

// renewFraction is how far into the validity window a cached token is
// still served. Past it the next reader fetches a fresh one, so renewal
// happens before the gateway starts rejecting.
const renewFraction = 0.96

// TokenCache is the process-wide gateway token. Reads are concurrent;
// replace and invalidate are single-writer.
type TokenCache struct {
	mu        sync.RWMutex
	token     string
	fetchedAt time.Time
	ttl       time.Duration
	clock     clock.Clock
}

func NewTokenCache(ttl time.Duration, clk clock.Clock) *TokenCache {
	return &TokenCache{ttl: ttl, clock: clk}
}

// Get returns the cached token, fetching a new one through authenticate
// when the cache is empty or inside the renewal window. A failed fetch
// leaves any previous token invalidated rather than extending its life.
func (c *TokenCache) Get(ctx context.Context, authenticate func(context.Context) (string, error)) (string, error) {
	c.mu.RLock()
	token := c.token
	fresh := c.isFresh()
	c.mu.RUnlock()

	if token != "" && fresh {
		return token, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another dispatcher may have refreshed while we waited.
	if c.token != "" && c.isFresh() {
		return c.token, nil
	}

	token, err := authenticate(ctx)
	if err != nil {
		c.token = ""
		return "", err
	}

	c.token = token
	c.fetchedAt = c.clock.Now()
	return token, nil
}

// Invalidate drops the cached token immediately. Called on a
// gateway-reported authentication failure.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *TokenCache) isFresh() bool {
	if c.fetchedAt.IsZero() {
		return false
	}
	age := c.clock.Now().Sub(c.fetchedAt)
	return float64(age) < float64(c.ttl)*renewFraction
}
