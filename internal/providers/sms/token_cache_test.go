package sms

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/elclub/paquetes/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestTokenCache_ReusesFreshToken(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	cache := NewTokenCache(24*time.Hour, clk)

	calls := 0
	authenticate := func(context.Context) (string, error) {
		calls++
		return fmt.Sprintf("token-%d", calls), nil
	}

	token, err := cache.Get(context.Background(), authenticate)
	assert.NoError(t, err)
	assert.Equal(t, "token-1", token)

	clk.Advance(12 * time.Hour)
	token, err = cache.Get(context.Background(), authenticate)
	assert.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, calls)
}

func TestTokenCache_RenewsBeforeExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	cache := NewTokenCache(24*time.Hour, clk)

	calls := 0
	authenticate := func(context.Context) (string, error) {
		calls++
		return fmt.Sprintf("token-%d", calls), nil
	}

	_, err := cache.Get(context.Background(), authenticate)
	assert.NoError(t, err)

	// Past 96% of the 24h window the cached token is no longer served.
	clk.Advance(23*time.Hour + 10*time.Minute)
	token, err := cache.Get(context.Background(), authenticate)
	assert.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, calls)
}

func TestTokenCache_InvalidateForcesRefetch(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	cache := NewTokenCache(24*time.Hour, clk)

	calls := 0
	authenticate := func(context.Context) (string, error) {
		calls++
		return fmt.Sprintf("token-%d", calls), nil
	}

	_, err := cache.Get(context.Background(), authenticate)
	assert.NoError(t, err)

	cache.Invalidate()

	token, err := cache.Get(context.Background(), authenticate)
	assert.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, calls)
}

func TestTokenCache_FailedFetchClearsToken(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	cache := NewTokenCache(time.Hour, clk)

	_, err := cache.Get(context.Background(), func(context.Context) (string, error) {
		return "token-1", nil
	})
	assert.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = cache.Get(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("login rejected")
	})
	assert.Error(t, err)

	// The stale token must not resurface after a failed refresh.
	token, err := cache.Get(context.Background(), func(context.Context) (string, error) {
		return "token-2", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "token-2", token)
}
