package goSession

import "errors"

var (
	// ErrInvalidCredential indicates the supplied credential is malformed or expired.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrOperationNotAllowed indicates the identity provider is disabled for this project.
	ErrOperationNotAllowed = errors.New("operation not allowed")
	// ErrEmailAlreadyInUse indicates the email is already bound to another account.
	ErrEmailAlreadyInUse = errors.New("email already in use")
	// ErrCredentialAlreadyInUse indicates the credential is already bound to another account.
	ErrCredentialAlreadyInUse = errors.New("credential already in use")
	// ErrUserDisabled indicates the account has been disabled by an administrator.
	ErrUserDisabled = errors.New("user disabled")
	// ErrWrongPassword indicates a password credential failed verification.
	ErrWrongPassword = errors.New("wrong password")
	// ErrUserMismatch indicates a reauthentication credential belongs to a different user.
	ErrUserMismatch = errors.New("user mismatch")
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrWeakPassword indicates the new password does not meet strength requirements.
	ErrWeakPassword = errors.New("weak password")
	// ErrProviderAlreadyLinked indicates a provider of this type is already linked.
	ErrProviderAlreadyLinked = errors.New("provider already linked")
	// ErrNoSuchProvider indicates an attempt to unlink a provider that is not linked.
	ErrNoSuchProvider = errors.New("no such provider")
	// ErrUserNotFound indicates the account no longer exists on the backend.
	ErrUserNotFound = errors.New("user not found")
	// ErrRequiresRecentLogin indicates a security-sensitive operation needs a fresh
	// sign-in. Callers must reauthenticate and retry; the session never does this
	// implicitly.
	ErrRequiresRecentLogin = errors.New("requires recent login")
	// ErrInvalidRecipientEmail indicates an invalid recipient email in an email action.
	ErrInvalidRecipientEmail = errors.New("invalid recipient email")
	// ErrMissingAppConfiguration indicates the backend project is misconfigured for
	// the requested email action.
	ErrMissingAppConfiguration = errors.New("missing app configuration")
	// ErrRefreshRevoked indicates the refresh token has been revoked server-side.
	ErrRefreshRevoked = errors.New("refresh token revoked")
	// ErrInvalidUserToken indicates the session's tokens no longer map to a valid user.
	ErrInvalidUserToken = errors.New("invalid user token")
	// ErrStaleSession is returned pre-flight, with no network attempted, by every
	// operation on a session that has already been invalidated.
	ErrStaleSession = errors.New("stale session")
	// ErrInvalidated is returned when the session was invalidated while an
	// operation was in flight; the operation's result is discarded.
	ErrInvalidated = errors.New("session invalidated mid-operation")
	// ErrSessionNotReady indicates the session was not built through Builder.Build.
	ErrSessionNotReady = errors.New("session not initialized")
	// ErrMissingRefreshToken indicates a refresh was requested but no refresh
	// token is present in the cache.
	ErrMissingRefreshToken = errors.New("missing refresh token")
	// ErrMalformedIDToken indicates the cached ID token could not be decoded as a JWT.
	ErrMalformedIDToken = errors.New("malformed id token")
)

// invalidating reports whether err is identity-invalidating: a failure that
// means the session's credentials are permanently no longer valid, as opposed
// to a transient transport failure. Only these errors flip the session's
// one-way validity latch.
func invalidating(err error) bool {
	return errors.Is(err, ErrUserDisabled) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrRefreshRevoked) ||
		errors.Is(err, ErrInvalidUserToken)
}
