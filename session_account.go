package goSession

import (
	"context"
	"errors"
)

// mutateAccount runs the shared account mutation sequence: fail fast on a
// stale session, obtain a cached token, call the account service, then merge
// the echoed update and persist. A mutation observed to race with
// invalidation is discarded and reported as [ErrInvalidated].
func (s *Session) mutateAccount(
	ctx context.Context,
	eventType string,
	call func(idToken string) (*AccountUpdate, error),
	metadataBuilder func() map[string]string,
) error {
	if err := s.ensureLive(); err != nil {
		return err
	}

	tok, _, err := s.tokens.token(ctx, false)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricAccountMutationFailure)
		s.emitAudit(ctx, eventType, false, err, metadataBuilder)
		return err
	}

	update, err := call(tok)
	if err != nil {
		s.checkBackendError(ctx, err)
		if errors.Is(err, ErrRequiresRecentLogin) {
			s.metrics.Inc(MetricRecentLoginRequired)
		}
		s.metrics.Inc(MetricAccountMutationFailure)
		s.emitAudit(ctx, eventType, false, err, metadataBuilder)
		return err
	}

	if s.latch.Invalidated() {
		// The session died while the call was in flight. The result must not
		// resurrect a dead session's state.
		s.emitAudit(ctx, eventType, false, ErrInvalidated, metadataBuilder)
		return ErrInvalidated
	}

	s.applyAccountUpdate(update)
	s.metrics.Inc(MetricAccountMutationSuccess)
	s.emitAudit(ctx, eventType, true, nil, metadataBuilder)
	s.persist(ctx)
	return nil
}

// UpdateEmail changes the account's primary email address. The backend may
// reject the change with [ErrEmailAlreadyInUse], [ErrInvalidEmail], or
// [ErrRequiresRecentLogin]; the last one means the caller must reauthenticate
// and retry, which is never done automatically.
func (s *Session) UpdateEmail(ctx context.Context, email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	return s.mutateAccount(ctx, auditEventEmailUpdate, func(idToken string) (*AccountUpdate, error) {
		return s.accounts.UpdateEmail(ctx, idToken, email)
	}, nil)
}

// UpdatePassword changes the account's password. An empty password is
// rejected locally with [ErrWeakPassword]; stronger policy lives in the
// backend.
func (s *Session) UpdatePassword(ctx context.Context, password string) error {
	if password == "" {
		return ErrWeakPassword
	}
	return s.mutateAccount(ctx, auditEventPasswordUpdate, func(idToken string) (*AccountUpdate, error) {
		return s.accounts.UpdatePassword(ctx, idToken, password)
	}, nil)
}

// UpdatePhoneNumber replaces the account's phone number using a verified
// phone credential.
func (s *Session) UpdatePhoneNumber(ctx context.Context, credential PhoneCredential) error {
	return s.mutateAccount(ctx, auditEventPhoneNumberUpdate, func(idToken string) (*AccountUpdate, error) {
		return s.accounts.UpdatePhoneNumber(ctx, idToken, credential)
	}, nil)
}

// SendEmailVerification asks the backend to send a verification email for
// the current address. Settings may carry continue-URL and app routing hints
// and may be nil.
func (s *Session) SendEmailVerification(ctx context.Context, settings *ActionCodeSettings) error {
	if err := s.ensureLive(); err != nil {
		return err
	}

	tok, _, err := s.tokens.token(ctx, false)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.emitAudit(ctx, auditEventEmailVerificationSent, false, err, nil)
		return err
	}

	if err := s.accounts.SendEmailVerification(ctx, tok, settings); err != nil {
		s.checkBackendError(ctx, err)
		s.emitAudit(ctx, auditEventEmailVerificationSent, false, err, nil)
		return err
	}

	s.metrics.Inc(MetricEmailVerificationSent)
	s.emitAudit(ctx, auditEventEmailVerificationSent, true, nil, nil)
	return nil
}

// SendEmailVerificationBeforeUpdatingEmail sends a verification email to a
// new address; the account's email only changes after the recipient follows
// the link. The local session is not modified by this call.
func (s *Session) SendEmailVerificationBeforeUpdatingEmail(ctx context.Context, newEmail string, settings *ActionCodeSettings) error {
	if newEmail == "" {
		return ErrInvalidEmail
	}
	if err := s.ensureLive(); err != nil {
		return err
	}

	tok, _, err := s.tokens.token(ctx, false)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.emitAudit(ctx, auditEventEmailUpdateVerification, false, err, nil)
		return err
	}

	if err := s.accounts.SendEmailVerificationBeforeUpdate(ctx, tok, newEmail, settings); err != nil {
		s.checkBackendError(ctx, err)
		s.emitAudit(ctx, auditEventEmailUpdateVerification, false, err, nil)
		return err
	}

	s.metrics.Inc(MetricEmailVerificationSent)
	s.emitAudit(ctx, auditEventEmailUpdateVerification, true, nil, nil)
	return nil
}

// Delete permanently removes the account from the backend. On success the
// session is invalidated and its persisted snapshot removed. The backend may
// require a recent login for this operation.
func (s *Session) Delete(ctx context.Context) error {
	if err := s.ensureLive(); err != nil {
		return err
	}

	tok, _, err := s.tokens.token(ctx, false)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.emitAudit(ctx, auditEventAccountDeleted, false, err, nil)
		return err
	}

	if err := s.accounts.DeleteAccount(ctx, tok); err != nil {
		s.checkBackendError(ctx, err)
		if errors.Is(err, ErrRequiresRecentLogin) {
			s.metrics.Inc(MetricRecentLoginRequired)
		}
		s.emitAudit(ctx, auditEventAccountDeleted, false, err, nil)
		return err
	}

	s.metrics.Inc(MetricAccountDeleted)
	s.emitAudit(ctx, auditEventAccountDeleted, true, nil, nil)
	s.invalidate(ctx, nil)

	if s.store != nil {
		dctx := context.WithoutCancel(ctx)
		if s.config.Persistence.SaveTimeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(dctx, s.config.Persistence.SaveTimeout)
			defer cancel()
		}
		if derr := s.store.Delete(dctx, s.tenantID, s.uid); derr != nil {
			s.metrics.Inc(MetricSnapshotSaveFailure)
		}
	}
	return nil
}
