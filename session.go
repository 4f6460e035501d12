package goSession

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sessionkit/goSession/snapshot"
)

// Session is a live authenticated account session. It caches the account's
// identity and profile state, serves ID tokens through a coalescing cache,
// and fans every successful mutation out to the snapshot store and the audit
// pipeline.
//
// All methods are safe for concurrent use. Once the session is invalidated
// (disabled account, revoked refresh token, deletion) every subsequent
// operation fails fast with [ErrStaleSession].
type Session struct {
	config Config

	// uid and tenantID never change for the lifetime of a session.
	uid      string
	tenantID string

	mu            sync.Mutex
	email         string
	emailVerified bool
	displayName   string
	photoURL      string
	phoneNumber   string
	anonymous     bool
	createdAt     time.Time
	lastSignInAt  time.Time
	providers     []ProviderRecord

	// linkMu serializes link and unlink so their check-then-act sequences
	// cannot interleave. It is never held while calling a collaborator's
	// result into s.mu-guarded state; lock order is linkMu before mu.
	linkMu sync.Mutex

	tokens *tokenCache
	latch  *invalidationLatch

	accounts AccountService
	identity IdentityService
	profiles ProfileService
	store    SnapshotStore
	sink     InvalidationSink

	audit   *auditDispatcher
	metrics *Metrics
}

// UID returns the account's stable unique identifier.
func (s *Session) UID() string {
	return s.uid
}

// TenantID returns the tenant the session belongs to, or "" for the default
// tenant.
func (s *Session) TenantID() string {
	return s.tenantID
}

// Email returns the account's primary email address.
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// IsEmailVerified reports whether the primary email has been verified.
func (s *Session) IsEmailVerified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailVerified
}

// DisplayName returns the account's display name, or "" when unset.
func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName
}

// PhotoURL returns the account's avatar URL, or "" when unset.
func (s *Session) PhotoURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photoURL
}

// PhoneNumber returns the account's phone number, or "" when unset.
func (s *Session) PhoneNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phoneNumber
}

// IsAnonymous reports whether the session was created by anonymous sign-in.
func (s *Session) IsAnonymous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anonymous
}

// Metadata returns the account's creation and last sign-in timestamps.
func (s *Session) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Metadata{CreatedAt: s.createdAt, LastSignInAt: s.lastSignInAt}
}

// ProviderData returns a copy of the linked provider records.
func (s *Session) ProviderData() []ProviderRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProviderRecord, len(s.providers))
	copy(out, s.providers)
	return out
}

// RefreshToken returns the current long-lived refresh token.
func (s *Session) RefreshToken() string {
	return s.tokens.state().RefreshToken
}

// TokenState returns a copy of the current token material.
func (s *Session) TokenState() TokenState {
	return s.tokens.state()
}

// Valid reports whether the session is still live.
func (s *Session) Valid() bool {
	return !s.latch.Invalidated()
}

// Done returns a channel that is closed when the session is invalidated.
func (s *Session) Done() <-chan struct{} {
	return s.latch.Done()
}

// MetricsSnapshot returns a point-in-time copy of the session's metrics.
func (s *Session) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped returns the number of audit events discarded because the
// dispatch buffer was full.
func (s *Session) AuditDropped() uint64 {
	return s.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. It does not invalidate the
// session; a closed session simply stops emitting audit events.
func (s *Session) Close() {
	s.audit.Close()
}

// ensureLive gates every operation. An invalidated session fails fast
// without touching any collaborator.
func (s *Session) ensureLive() error {
	if s == nil || s.tokens == nil {
		return ErrSessionNotReady
	}
	if s.latch.Invalidated() {
		s.metrics.Inc(MetricStaleSessionRejected)
		return ErrStaleSession
	}
	return nil
}

// invalidate trips the validity latch. Only the first caller notifies the
// invalidation sink and persists the terminal snapshot; later calls are
// no-ops.
func (s *Session) invalidate(ctx context.Context, cause error) {
	if !s.latch.trip() {
		return
	}
	s.metrics.Inc(MetricSessionInvalidated)
	s.emitAudit(ctx, auditEventSessionInvalidated, false, cause, nil)
	if s.sink != nil {
		s.sink.NotifyInvalidated(s.uid)
	}
	s.persist(ctx)
}

// checkBackendError routes a collaborator failure: errors that prove the
// backend no longer honors this identity trip the latch, everything else is
// returned untouched for the caller to retry.
func (s *Session) checkBackendError(ctx context.Context, err error) {
	if invalidating(err) {
		s.invalidate(ctx, err)
	}
}

// applyAccountUpdate merges the non-nil fields of a backend echo into the
// cached profile. Fields the backend did not return are left untouched.
func (s *Session) applyAccountUpdate(update *AccountUpdate) {
	if update == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if update.Email != nil {
		s.email = *update.Email
	}
	if update.EmailVerified != nil {
		s.emailVerified = *update.EmailVerified
	}
	if update.PhoneNumber != nil {
		s.phoneNumber = *update.PhoneNumber
	}
	if update.DisplayName != nil {
		s.displayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		s.photoURL = *update.PhotoURL
	}
}

// Snapshot returns a serializable copy of the full session state.
func (s *Session) Snapshot() *snapshot.Snapshot {
	ts := s.tokens.state()

	s.mu.Lock()
	defer s.mu.Unlock()

	providers := make([]snapshot.ProviderRecord, len(s.providers))
	copy(providers, s.providers)

	return &snapshot.Snapshot{
		SchemaVersion:  snapshot.CurrentSchemaVersion,
		UID:            s.uid,
		TenantID:       s.tenantID,
		Email:          s.email,
		EmailVerified:  s.emailVerified,
		DisplayName:    s.displayName,
		PhotoURL:       s.photoURL,
		PhoneNumber:    s.phoneNumber,
		Anonymous:      s.anonymous,
		CreatedAt:      s.createdAt.Unix(),
		LastSignInAt:   s.lastSignInAt.Unix(),
		Providers:      providers,
		IDToken:        ts.IDToken,
		TokenExpiresAt: ts.ExpiresAt.Unix(),
		RefreshToken:   ts.RefreshToken,
		Valid:          !s.latch.Invalidated(),
	}
}

// persist writes the current snapshot to the store. Persistence is
// best-effort: a failed save is logged, counted, and audited but never fails
// the operation that triggered it.
func (s *Session) persist(ctx context.Context) {
	if s.store == nil {
		return
	}

	snap := s.Snapshot()

	sctx := context.WithoutCancel(ctx)
	if s.config.Persistence.SaveTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(sctx, s.config.Persistence.SaveTimeout)
		defer cancel()
	}

	if err := s.store.Save(sctx, snap); err != nil {
		log.Printf("goSession: snapshot save failed for uid %s: %v", s.uid, err)
		s.metrics.Inc(MetricSnapshotSaveFailure)
		s.emitAudit(ctx, auditEventSnapshotSaveFailed, false, nil, func() map[string]string {
			return map[string]string{"save_error": err.Error()}
		})
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func (s *Session) hasProviderLocked(providerID string) bool {
	for i := range s.providers {
		if s.providers[i].ProviderID == providerID {
			return true
		}
	}
	return false
}
