package goSession

import (
	"context"
	"strconv"
)

// Reload fetches the authoritative account profile from the backend and
// replaces the cached copy wholesale, including provider records and
// metadata. It forces a token refresh first so a disabled or deleted account
// is detected here rather than served from cache.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.ensureLive(); err != nil {
		return err
	}

	tok, _, err := s.tokens.token(ctx, true)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricReloadFailure)
		s.emitAudit(ctx, auditEventReloaded, false, err, nil)
		return err
	}

	profile, err := s.profiles.Fetch(ctx, tok)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricReloadFailure)
		s.emitAudit(ctx, auditEventReloaded, false, err, nil)
		return err
	}

	if s.latch.Invalidated() {
		return ErrInvalidated
	}

	providers := make([]ProviderRecord, len(profile.Providers))
	copy(providers, profile.Providers)

	s.mu.Lock()
	s.email = profile.Email
	s.emailVerified = profile.EmailVerified
	s.displayName = profile.DisplayName
	s.photoURL = profile.PhotoURL
	s.phoneNumber = profile.PhoneNumber
	s.anonymous = profile.Anonymous
	if !profile.CreatedAt.IsZero() {
		s.createdAt = profile.CreatedAt
	}
	if !profile.LastSignInAt.IsZero() {
		s.lastSignInAt = profile.LastSignInAt
	}
	s.providers = providers
	s.mu.Unlock()

	s.metrics.Inc(MetricReloadSuccess)
	s.emitAudit(ctx, auditEventReloaded, true, nil, func() map[string]string {
		return map[string]string{"provider_count": strconv.Itoa(len(providers))}
	})
	s.persist(ctx)
	return nil
}
