package goSession

import (
	"context"
	"errors"
	"time"

	internalaudit "github.com/sessionkit/goSession/internal/audit"
)

const (
	auditEventTokenRefreshSuccess     = "token_refresh_success"
	auditEventTokenRefreshFailure     = "token_refresh_failure"
	auditEventEmailUpdate             = "email_update"
	auditEventPasswordUpdate          = "password_update"
	auditEventPhoneNumberUpdate       = "phone_number_update"
	auditEventProfileCommit           = "profile_commit"
	auditEventEmailVerificationSent   = "email_verification_sent"
	auditEventEmailUpdateVerification = "email_update_verification_sent"
	auditEventProviderLinked          = "provider_linked"
	auditEventProviderUnlinked        = "provider_unlinked"
	auditEventReauthenticated         = "reauthenticated"
	auditEventReloaded                = "profile_reloaded"
	auditEventAccountDeleted          = "account_deleted"
	auditEventSessionInvalidated      = "session_invalidated"
	auditEventSnapshotSaveFailed      = "snapshot_save_failed"
)

// AuditErrorCode is the normalized error label attached to audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredential    AuditErrorCode = "invalid_credential"
	auditErrOperationNotAllowed  AuditErrorCode = "operation_not_allowed"
	auditErrEmailInUse           AuditErrorCode = "email_already_in_use"
	auditErrCredentialInUse      AuditErrorCode = "credential_already_in_use"
	auditErrUserDisabled         AuditErrorCode = "user_disabled"
	auditErrWrongPassword        AuditErrorCode = "wrong_password"
	auditErrUserMismatch         AuditErrorCode = "user_mismatch"
	auditErrInvalidEmail         AuditErrorCode = "invalid_email"
	auditErrWeakPassword         AuditErrorCode = "weak_password"
	auditErrProviderLinked       AuditErrorCode = "provider_already_linked"
	auditErrNoSuchProvider       AuditErrorCode = "no_such_provider"
	auditErrUserNotFound         AuditErrorCode = "user_not_found"
	auditErrRecentLoginRequired  AuditErrorCode = "requires_recent_login"
	auditErrInvalidRecipient     AuditErrorCode = "invalid_recipient_email"
	auditErrMissingConfiguration AuditErrorCode = "missing_app_configuration"
	auditErrRefreshRevoked       AuditErrorCode = "refresh_revoked"
	auditErrInvalidUserToken     AuditErrorCode = "invalid_user_token"
	auditErrStaleSession         AuditErrorCode = "stale_session"
	auditErrInvalidated          AuditErrorCode = "invalidated"
	auditErrTransient            AuditErrorCode = "transient"
)

func (s *Session) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	err error,
	metadataBuilder func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventID:   internalaudit.NewEventID(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UID:       s.uid,
		TenantID:  s.tenantID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	s.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredential):
		return auditErrInvalidCredential
	case errors.Is(err, ErrOperationNotAllowed):
		return auditErrOperationNotAllowed
	case errors.Is(err, ErrEmailAlreadyInUse):
		return auditErrEmailInUse
	case errors.Is(err, ErrCredentialAlreadyInUse):
		return auditErrCredentialInUse
	case errors.Is(err, ErrUserDisabled):
		return auditErrUserDisabled
	case errors.Is(err, ErrWrongPassword):
		return auditErrWrongPassword
	case errors.Is(err, ErrUserMismatch):
		return auditErrUserMismatch
	case errors.Is(err, ErrInvalidEmail):
		return auditErrInvalidEmail
	case errors.Is(err, ErrWeakPassword):
		return auditErrWeakPassword
	case errors.Is(err, ErrProviderAlreadyLinked):
		return auditErrProviderLinked
	case errors.Is(err, ErrNoSuchProvider):
		return auditErrNoSuchProvider
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrRequiresRecentLogin):
		return auditErrRecentLoginRequired
	case errors.Is(err, ErrInvalidRecipientEmail):
		return auditErrInvalidRecipient
	case errors.Is(err, ErrMissingAppConfiguration):
		return auditErrMissingConfiguration
	case errors.Is(err, ErrRefreshRevoked):
		return auditErrRefreshRevoked
	case errors.Is(err, ErrInvalidUserToken):
		return auditErrInvalidUserToken
	case errors.Is(err, ErrStaleSession):
		return auditErrStaleSession
	case errors.Is(err, ErrInvalidated):
		return auditErrInvalidated
	default:
		return auditErrTransient
	}
}
