package goSession

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TokenState is a point-in-time copy of the session's token material.
// ExpiresAt is the server-declared expiry; the cache stops serving the token
// one expiry-skew window earlier.
type TokenState struct {
	IDToken      string
	ExpiresAt    time.Time
	RefreshToken string
}

// tokenCache holds the current ID token and coalesces concurrent refresh
// requests into one outstanding exchange. The mutex guards only the cached
// fields; the exchange itself runs inside a singleflight group so at most one
// network call per session is ever in flight.
type tokenCache struct {
	exchanger TokenExchanger
	skew      time.Duration
	metrics   *Metrics
	now       func() time.Time

	sf singleflight.Group

	mu           sync.Mutex
	idToken      string
	expiresAt    time.Time
	refreshToken string
}

func newTokenCache(exchanger TokenExchanger, skew time.Duration, metrics *Metrics, state TokenState) *tokenCache {
	return &tokenCache{
		exchanger:    exchanger,
		skew:         skew,
		metrics:      metrics,
		now:          time.Now,
		idToken:      state.IDToken,
		expiresAt:    state.ExpiresAt,
		refreshToken: state.RefreshToken,
	}
}

// usableLocked reports whether the cached token can be served without a
// refresh. Callers must hold c.mu.
func (c *tokenCache) usableLocked() bool {
	return c.idToken != "" && c.now().Before(c.expiresAt.Add(-c.skew))
}

// token returns a current ID token, refreshing through the exchanger when the
// cached one is missing, expired, inside the skew window, or forceRefresh is
// set. The returned bool reports whether this call's result came from a
// completed refresh rather than the warm cache.
//
// Concurrent callers that need a refresh attach to the in-flight exchange and
// all receive its result exactly once. The exchange runs under the initiating
// caller's context.
func (c *tokenCache) token(ctx context.Context, forceRefresh bool) (string, bool, error) {
	c.mu.Lock()
	if !forceRefresh && c.usableLocked() {
		tok := c.idToken
		c.mu.Unlock()
		c.metrics.Inc(MetricTokenCacheHit)
		return tok, false, nil
	}
	c.mu.Unlock()

	v, err, shared := c.sf.Do("refresh", func() (any, error) {
		if !forceRefresh {
			// Another caller may have completed a refresh between our
			// fast-path check and joining the flight.
			c.mu.Lock()
			if c.usableLocked() {
				tok := c.idToken
				c.mu.Unlock()
				return tok, nil
			}
			c.mu.Unlock()
		}
		return c.refresh(ctx)
	})
	if shared {
		c.metrics.Inc(MetricTokenRefreshCoalesced)
	}
	if err != nil {
		return "", false, err
	}
	return v.(string), true, nil
}

func (c *tokenCache) refresh(ctx context.Context) (any, error) {
	c.mu.Lock()
	rt := c.refreshToken
	c.mu.Unlock()
	if rt == "" {
		return nil, ErrMissingRefreshToken
	}

	start := c.now()
	resp, err := c.exchanger.Exchange(ctx, rt)
	c.metrics.Observe(MetricTokenRefreshLatency, c.now().Sub(start))
	if err != nil {
		// A transient failure leaves the cached (stale) token untouched for
		// a later retry; classification is the session's concern.
		c.metrics.Inc(MetricTokenRefreshFailure)
		return nil, err
	}

	c.mu.Lock()
	c.idToken = resp.IDToken
	c.expiresAt = c.now().Add(resp.ExpiresIn)
	if resp.RefreshToken != "" {
		c.refreshToken = resp.RefreshToken
	}
	c.mu.Unlock()

	c.metrics.Inc(MetricTokenRefreshSuccess)
	return resp.IDToken, nil
}

// set replaces the cached token triple atomically. Used when a
// reauthentication or link returns a fresh pair.
func (c *tokenCache) set(resp TokenResponse) {
	if resp.IDToken == "" {
		return
	}
	c.mu.Lock()
	c.idToken = resp.IDToken
	c.expiresAt = c.now().Add(resp.ExpiresIn)
	if resp.RefreshToken != "" {
		c.refreshToken = resp.RefreshToken
	}
	c.mu.Unlock()
}

// state returns a copy of the cached token material.
func (c *tokenCache) state() TokenState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TokenState{
		IDToken:      c.idToken,
		ExpiresAt:    c.expiresAt,
		RefreshToken: c.refreshToken,
	}
}
