package goSession

import "context"

// LinkWithCredential attaches an additional sign-in provider to the account.
// A provider that is already linked is rejected locally with
// [ErrProviderAlreadyLinked] before any network traffic. The provider set
// check and the final merge are re-validated atomically so two concurrent
// links of the same provider can never both succeed.
func (s *Session) LinkWithCredential(ctx context.Context, credential Credential) error {
	if err := s.ensureLive(); err != nil {
		return err
	}

	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	meta := func() map[string]string {
		return map[string]string{"provider_id": credential.ProviderID}
	}

	s.mu.Lock()
	dup := s.hasProviderLocked(credential.ProviderID)
	s.mu.Unlock()
	if dup {
		s.metrics.Inc(MetricLinkDuplicateRejected)
		s.emitAudit(ctx, auditEventProviderLinked, false, ErrProviderAlreadyLinked, meta)
		return ErrProviderAlreadyLinked
	}

	tok, _, err := s.tokens.token(ctx, false)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricLinkFailure)
		s.emitAudit(ctx, auditEventProviderLinked, false, err, meta)
		return err
	}

	res, err := s.identity.Link(ctx, tok, credential)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricLinkFailure)
		s.emitAudit(ctx, auditEventProviderLinked, false, err, meta)
		return err
	}

	if s.latch.Invalidated() {
		return ErrInvalidated
	}

	record := ProviderRecord{ProviderID: credential.ProviderID, UID: res.UID}
	if res.Provider != nil {
		record = *res.Provider
	}

	s.mu.Lock()
	if s.hasProviderLocked(record.ProviderID) {
		// A reload raced us and already brought this provider in.
		s.mu.Unlock()
		s.metrics.Inc(MetricLinkDuplicateRejected)
		s.emitAudit(ctx, auditEventProviderLinked, false, ErrProviderAlreadyLinked, meta)
		return ErrProviderAlreadyLinked
	}
	s.providers = append(s.providers, record)
	// Blank profile fields pick up what the new provider knows.
	if s.email == "" && res.Email != "" {
		s.email = res.Email
	}
	if s.displayName == "" && res.DisplayName != "" {
		s.displayName = res.DisplayName
	}
	if s.photoURL == "" && res.PhotoURL != "" {
		s.photoURL = res.PhotoURL
	}
	s.anonymous = false
	s.mu.Unlock()

	s.tokens.set(res.Token)

	s.metrics.Inc(MetricLinkSuccess)
	s.emitAudit(ctx, auditEventProviderLinked, true, nil, meta)
	s.persist(ctx)
	return nil
}

// LinkWithProvider obtains a credential from a federated provider flow and
// links it.
func (s *Session) LinkWithProvider(ctx context.Context, provider FederatedProvider) error {
	if err := s.ensureLive(); err != nil {
		return err
	}
	credential, err := provider.Credential(ctx)
	if err != nil {
		return err
	}
	return s.LinkWithCredential(ctx, credential)
}

// UnlinkFromProvider detaches a linked provider. A provider that is not
// linked is rejected locally with [ErrNoSuchProvider] before any network
// traffic.
func (s *Session) UnlinkFromProvider(ctx context.Context, providerID string) error {
	if err := s.ensureLive(); err != nil {
		return err
	}

	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	meta := func() map[string]string {
		return map[string]string{"provider_id": providerID}
	}

	s.mu.Lock()
	present := s.hasProviderLocked(providerID)
	s.mu.Unlock()
	if !present {
		s.metrics.Inc(MetricUnlinkMissingRejected)
		s.emitAudit(ctx, auditEventProviderUnlinked, false, ErrNoSuchProvider, meta)
		return ErrNoSuchProvider
	}

	tok, _, err := s.tokens.token(ctx, false)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricUnlinkFailure)
		s.emitAudit(ctx, auditEventProviderUnlinked, false, err, meta)
		return err
	}

	if err := s.identity.Unlink(ctx, tok, providerID); err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricUnlinkFailure)
		s.emitAudit(ctx, auditEventProviderUnlinked, false, err, meta)
		return err
	}

	if s.latch.Invalidated() {
		return ErrInvalidated
	}

	s.mu.Lock()
	kept := s.providers[:0]
	for _, p := range s.providers {
		if p.ProviderID != providerID {
			kept = append(kept, p)
		}
	}
	s.providers = kept
	s.mu.Unlock()

	s.metrics.Inc(MetricUnlinkSuccess)
	s.emitAudit(ctx, auditEventProviderUnlinked, true, nil, meta)
	s.persist(ctx)
	return nil
}
