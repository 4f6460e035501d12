package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestIDTokenServedFromCache(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	for i := 0; i < 3; i++ {
		tok, err := session.IDToken(context.Background())
		if err != nil {
			t.Fatalf("IDToken failed: %v", err)
		}
		if tok != "warm-token" {
			t.Fatalf("expected cached token, got %q", tok)
		}
	}

	exchange, _, _, _, _, _ := backend.counts()
	if exchange != 0 {
		t.Fatalf("expected zero exchanges for warm cache, got %d", exchange)
	}
	if got := session.metrics.Value(MetricTokenCacheHit); got != 3 {
		t.Fatalf("expected 3 cache hits, got %d", got)
	}
}

func TestIDTokenRefreshesInsideSkewWindow(t *testing.T) {
	backend := newMockBackend()
	snap := testSnapshot()
	// Expires in 10s with a 5m default skew: still before expiry but inside
	// the window, so a refresh is required.
	snap.TokenExpiresAt = time.Now().Add(10 * time.Second).Unix()
	session, _, _ := newTestSession(t, backend, snap)

	tok, err := session.IDToken(context.Background())
	if err != nil {
		t.Fatalf("IDToken failed: %v", err)
	}
	if tok != "fresh-token" {
		t.Fatalf("expected refreshed token, got %q", tok)
	}

	exchange, _, _, _, _, _ := backend.counts()
	if exchange != 1 {
		t.Fatalf("expected one exchange, got %d", exchange)
	}
}

func TestIDTokenForcingRefreshBypassesCache(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	tok, err := session.IDTokenForcingRefresh(context.Background(), true)
	if err != nil {
		t.Fatalf("IDTokenForcingRefresh failed: %v", err)
	}
	if tok != "fresh-token" {
		t.Fatalf("expected refreshed token, got %q", tok)
	}

	exchange, _, _, _, _, _ := backend.counts()
	if exchange != 1 {
		t.Fatalf("expected one exchange, got %d", exchange)
	}
}

func TestConcurrentForcedRefreshCoalesces(t *testing.T) {
	backend := newMockBackend()

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	backend.exchangeFn = func(string) (*TokenResponse, error) {
		once.Do(func() { close(started) })
		<-release
		return &TokenResponse{IDToken: "fresh-token", ExpiresIn: time.Hour}, nil
	}

	session, _, _ := newTestSession(t, backend, testSnapshot())

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = session.IDTokenForcingRefresh(context.Background(), true)
		}(i)
	}

	<-started
	// Give the remaining callers time to attach to the in-flight exchange.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if tokens[i] != "fresh-token" {
			t.Fatalf("caller %d got %q", i, tokens[i])
		}
	}

	exchange, _, _, _, _, _ := backend.counts()
	if exchange != 1 {
		t.Fatalf("expected exactly one exchange, got %d", exchange)
	}
	if got := session.metrics.Value(MetricTokenRefreshSuccess); got != 1 {
		t.Fatalf("expected one refresh success, got %d", got)
	}
}

func TestTransientRefreshFailureLeavesCache(t *testing.T) {
	backend := newMockBackend()
	transient := errors.New("backend unreachable")
	backend.exchangeFn = func(string) (*TokenResponse, error) {
		return nil, transient
	}

	snap := testSnapshot()
	snap.TokenExpiresAt = time.Now().Add(-time.Minute).Unix()
	session, _, _ := newTestSession(t, backend, snap)

	_, err := session.IDToken(context.Background())
	if !errors.Is(err, transient) {
		t.Fatalf("expected transient error, got %v", err)
	}

	// The session survives and the stale state is intact for a retry.
	if !session.Valid() {
		t.Fatal("transient failure must not invalidate the session")
	}
	state := session.TokenState()
	if state.IDToken != "warm-token" || state.RefreshToken != "refresh-1" {
		t.Fatalf("cached state disturbed: %+v", state)
	}

	// A later successful exchange recovers.
	backend.mu.Lock()
	backend.exchangeFn = nil
	backend.mu.Unlock()

	tok, err := session.IDToken(context.Background())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if tok != "fresh-token" {
		t.Fatalf("expected refreshed token after retry, got %q", tok)
	}
}

func TestRevokedRefreshInvalidatesSession(t *testing.T) {
	backend := newMockBackend()
	backend.exchangeFn = func(string) (*TokenResponse, error) {
		return nil, ErrRefreshRevoked
	}

	session, _, sink := newTestSession(t, backend, testSnapshot())

	_, err := session.IDTokenForcingRefresh(context.Background(), true)
	if !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("expected ErrRefreshRevoked, got %v", err)
	}

	if session.Valid() {
		t.Fatal("expected session invalidated")
	}
	if got := sink.notified(); len(got) != 1 || got[0] != "user-1" {
		t.Fatalf("expected one sink notification for user-1, got %v", got)
	}

	// Everything after the latch trips fails fast.
	if _, err := session.IDToken(context.Background()); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	backend := newMockBackend()
	backend.exchangeFn = func(string) (*TokenResponse, error) {
		return &TokenResponse{
			IDToken:      "fresh-token",
			ExpiresIn:    time.Hour,
			RefreshToken: "refresh-2",
		}, nil
	}

	session, _, _ := newTestSession(t, backend, testSnapshot())

	if _, err := session.IDTokenForcingRefresh(context.Background(), true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := session.RefreshToken(); got != "refresh-2" {
		t.Fatalf("expected rotated refresh token, got %q", got)
	}
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	backend := newMockBackend()
	snap := testSnapshot()
	snap.RefreshToken = ""
	snap.TokenExpiresAt = time.Now().Add(-time.Minute).Unix()
	session, _, _ := newTestSession(t, backend, snap)

	_, err := session.IDToken(context.Background())
	if !errors.Is(err, ErrMissingRefreshToken) {
		t.Fatalf("expected ErrMissingRefreshToken, got %v", err)
	}

	exchange, _, _, _, _, _ := backend.counts()
	if exchange != 0 {
		t.Fatalf("expected no exchange without a refresh token, got %d", exchange)
	}
}

func TestTokenRefreshPersistsSnapshot(t *testing.T) {
	backend := newMockBackend()
	session, store, _ := newTestSession(t, backend, testSnapshot())

	if _, err := session.IDTokenForcingRefresh(context.Background(), true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	snap := store.lastSave()
	if snap == nil {
		t.Fatal("expected a snapshot save after refresh")
	}
	if snap.IDToken != "fresh-token" {
		t.Fatalf("persisted snapshot has stale token %q", snap.IDToken)
	}
}
