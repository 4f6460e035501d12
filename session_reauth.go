package goSession

import "context"

// ReauthenticateWithCredential re-verifies the account holder with a fresh
// credential and installs the resulting tokens. The credential must resolve
// to the same account: a mismatch returns [ErrUserMismatch] and leaves the
// session completely untouched.
//
// Backends demand a recent login for sensitive mutations; this is the call
// that satisfies that demand.
func (s *Session) ReauthenticateWithCredential(ctx context.Context, credential Credential) error {
	if err := s.ensureLive(); err != nil {
		return err
	}

	res, err := s.identity.Verify(ctx, credential)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricReauthFailure)
		s.emitAudit(ctx, auditEventReauthenticated, false, err, func() map[string]string {
			return map[string]string{"provider_id": credential.ProviderID}
		})
		return err
	}

	if res.UID != s.uid {
		s.metrics.Inc(MetricReauthUserMismatch)
		s.emitAudit(ctx, auditEventReauthenticated, false, ErrUserMismatch, func() map[string]string {
			return map[string]string{"provider_id": credential.ProviderID}
		})
		return ErrUserMismatch
	}

	if s.latch.Invalidated() {
		return ErrInvalidated
	}

	s.tokens.set(res.Token)

	if res.Provider != nil {
		s.mu.Lock()
		s.mergeProviderLocked(*res.Provider)
		s.lastSignInAt = nowUTC()
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		s.lastSignInAt = nowUTC()
		s.mu.Unlock()
	}

	s.metrics.Inc(MetricReauthSuccess)
	s.emitAudit(ctx, auditEventReauthenticated, true, nil, func() map[string]string {
		return map[string]string{"provider_id": credential.ProviderID}
	})
	s.persist(ctx)
	return nil
}

// ReauthenticateWithProvider obtains a credential from a federated provider
// flow and reauthenticates with it.
func (s *Session) ReauthenticateWithProvider(ctx context.Context, provider FederatedProvider) error {
	if err := s.ensureLive(); err != nil {
		return err
	}
	credential, err := provider.Credential(ctx)
	if err != nil {
		return err
	}
	return s.ReauthenticateWithCredential(ctx, credential)
}

// mergeProviderLocked replaces the record for the same provider ID or
// appends a new one. Callers must hold s.mu.
func (s *Session) mergeProviderLocked(record ProviderRecord) {
	for i := range s.providers {
		if s.providers[i].ProviderID == record.ProviderID {
			s.providers[i] = record
			return
		}
	}
	s.providers = append(s.providers, record)
}
