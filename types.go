package goSession

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/sessionkit/goSession/internal/audit"
	"github.com/sessionkit/goSession/snapshot"
)

// ProviderRecord is the cached profile data for one linked identity provider.
// Alias of the snapshot model so collaborators and persistence share one type.
type ProviderRecord = snapshot.ProviderRecord

// Metadata holds the account timestamps reported by the backend.
type Metadata struct {
	CreatedAt    time.Time
	LastSignInAt time.Time
}

// TokenResponse is the result of one token exchange: a fresh ID token, its
// validity window as declared by the server, and optionally a rotated refresh
// token. An empty RefreshToken means the previous one is still valid.
type TokenResponse struct {
	IDToken      string
	ExpiresIn    time.Duration
	RefreshToken string
}

// Credential is an opaque proof of identity produced by a sign-in flow: a
// third-party provider assertion, an email/password pair, a phone
// verification. The IdentityService interprets Params; this package only
// routes credentials and never inspects them.
type Credential struct {
	ProviderID string
	Params     map[string]string
}

// PhoneCredential carries a completed phone verification for
// [Session.UpdatePhoneNumber].
type PhoneCredential struct {
	VerificationID string
	Code           string
}

// ActionCodeSettings configures how out-of-band email actions (verification
// links) are handled by the receiving app. Passed through to the
// AccountService unmodified; nil means backend defaults.
type ActionCodeSettings struct {
	ContinueURL           string
	HandleCodeInApp       bool
	IOSBundleID           string
	AndroidPackageName    string
	AndroidInstallApp     bool
	AndroidMinimumVersion string
	DynamicLinkDomain     string
}

// AccountUpdate is the partial profile delta returned by a successful account
// mutation. Nil fields were not returned by the backend and leave the cached
// value untouched.
type AccountUpdate struct {
	Email         *string
	EmailVerified *bool
	PhoneNumber   *string
	DisplayName   *string
	PhotoURL      *string
}

// AccountProfile is the authoritative, total profile returned by
// [ProfileService.Fetch]. Reload replaces cached state with its contents
// wholesale; it never merges.
type AccountProfile struct {
	UID           string
	TenantID      string
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
	PhoneNumber   string
	Anonymous     bool
	CreatedAt     time.Time
	LastSignInAt  time.Time
	Providers     []ProviderRecord
}

// VerificationResult is returned by [IdentityService.Verify] and
// [IdentityService.Link]: the uid of the verified identity, a fresh token
// pair, and any provider metadata asserted by the credential.
type VerificationResult struct {
	UID      string
	Token    TokenResponse
	Provider *ProviderRecord

	// Profile fields asserted by the credential, used to backfill blanks on
	// link. Empty strings assert nothing.
	Email       string
	DisplayName string
	PhotoURL    string
}

// TokenExchanger exchanges a refresh token for a fresh ID token. This is the
// only collaborator the token cache talks to.
type TokenExchanger interface {
	Exchange(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// AccountService performs account mutations against the identity backend.
// Every method takes the session's current ID token. Mutating methods return
// the backend's partial profile delta.
type AccountService interface {
	UpdateEmail(ctx context.Context, idToken, email string) (*AccountUpdate, error)
	UpdatePassword(ctx context.Context, idToken, password string) (*AccountUpdate, error)
	UpdatePhoneNumber(ctx context.Context, idToken string, credential PhoneCredential) (*AccountUpdate, error)
	UpdateProfile(ctx context.Context, idToken string, changes ProfileChanges) (*AccountUpdate, error)
	SendEmailVerification(ctx context.Context, idToken string, settings *ActionCodeSettings) error
	SendEmailVerificationBeforeUpdate(ctx context.Context, idToken, newEmail string, settings *ActionCodeSettings) error
	DeleteAccount(ctx context.Context, idToken string) error
}

// IdentityService verifies credentials and manages provider links.
type IdentityService interface {
	Verify(ctx context.Context, credential Credential) (*VerificationResult, error)
	Link(ctx context.Context, idToken string, credential Credential) (*VerificationResult, error)
	Unlink(ctx context.Context, idToken, providerID string) error
}

// ProfileService fetches the full current profile for Reload.
type ProfileService interface {
	Fetch(ctx context.Context, idToken string) (*AccountProfile, error)
}

// SnapshotStore persists session snapshots. The session calls Save after
// every successful mutating operation and after invalidation; failures are
// logged and audited but never fail the user-visible operation.
// [snapshot.RedisStore] is a ready-made implementation.
type SnapshotStore interface {
	Save(ctx context.Context, snap *snapshot.Snapshot) error
	Delete(ctx context.Context, tenantID, uid string) error
}

// InvalidationSink is notified exactly once, the first time a session's
// validity flips false, so a host-level current-user registry can react.
type InvalidationSink interface {
	NotifyInvalidated(uid string)
}

// FederatedProvider produces a credential through a provider-specific flow
// (typically interactive). It backs the ...WithProvider operation variants;
// presentation of the flow is the host's concern.
type FederatedProvider interface {
	Credential(ctx context.Context) (Credential, error)
}

// TokenResult is the decoded view of an ID token returned by
// [Session.IDTokenResult]. Claims are decoded without signature
// verification; treat them as a cache-side convenience, not a trust decision.
type TokenResult struct {
	Token          string
	AuthTime       time.Time
	IssuedAt       time.Time
	ExpirationTime time.Time
	SignInProvider string
	Claims         map[string]any
}

// AuditEvent is a structured audit record emitted by the session.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the session's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
