package goSession

import (
	"errors"
	"time"

	"github.com/sessionkit/goSession/snapshot"
)

// Builder assembles a [Session] from a restored snapshot and the backend
// collaborators. It is single-use: Build may be called once.
type Builder struct {
	config    Config
	snap      *snapshot.Snapshot
	exchanger TokenExchanger
	accounts  AccountService
	identity  IdentityService
	profiles  ProfileService
	store     SnapshotStore
	sink      InvalidationSink
	auditSink AuditSink
	built     bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSnapshot sets the restored session state to build from. Required.
func (b *Builder) WithSnapshot(snap *snapshot.Snapshot) *Builder {
	if snap != nil {
		b.snap = snap.Clone()
	}
	return b
}

// WithTokenExchanger sets the refresh-token exchanger. Required.
func (b *Builder) WithTokenExchanger(exchanger TokenExchanger) *Builder {
	b.exchanger = exchanger
	return b
}

// WithAccountService sets the account mutation backend. Required.
func (b *Builder) WithAccountService(accounts AccountService) *Builder {
	b.accounts = accounts
	return b
}

// WithIdentityService sets the credential verification backend. Required.
func (b *Builder) WithIdentityService(identity IdentityService) *Builder {
	b.identity = identity
	return b
}

// WithProfileService sets the profile fetch backend. Required.
func (b *Builder) WithProfileService(profiles ProfileService) *Builder {
	b.profiles = profiles
	return b
}

// WithSnapshotStore sets the persistence collaborator. Optional; without it
// snapshots are simply not persisted.
func (b *Builder) WithSnapshotStore(store SnapshotStore) *Builder {
	b.store = store
	return b
}

// WithInvalidationSink sets the collaborator notified when the session is
// invalidated. Optional.
func (b *Builder) WithInvalidationSink(sink InvalidationSink) *Builder {
	b.sink = sink
	return b
}

// WithAuditSink enables audit dispatch into the given sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histogram recording. Implies nothing
// unless metrics are enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and collaborators and returns the live
// session. The builder cannot be reused afterwards.
func (b *Builder) Build() (*Session, error) {
	if b.built {
		return nil, errors.New("goSession: builder already used")
	}
	b.built = true

	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	switch {
	case b.snap == nil:
		return nil, errors.New("goSession: snapshot is required")
	case b.snap.UID == "":
		return nil, errors.New("goSession: snapshot has no uid")
	case !b.snap.Valid:
		return nil, errors.New("goSession: snapshot is already invalidated")
	case b.exchanger == nil:
		return nil, errors.New("goSession: token exchanger is required")
	case b.accounts == nil:
		return nil, errors.New("goSession: account service is required")
	case b.identity == nil:
		return nil, errors.New("goSession: identity service is required")
	case b.profiles == nil:
		return nil, errors.New("goSession: profile service is required")
	}

	metrics := NewMetrics(b.config.Metrics)

	providers := make([]ProviderRecord, len(b.snap.Providers))
	copy(providers, b.snap.Providers)

	s := &Session{
		config:        b.config,
		uid:           b.snap.UID,
		tenantID:      b.snap.TenantID,
		email:         b.snap.Email,
		emailVerified: b.snap.EmailVerified,
		displayName:   b.snap.DisplayName,
		photoURL:      b.snap.PhotoURL,
		phoneNumber:   b.snap.PhoneNumber,
		anonymous:     b.snap.Anonymous,
		createdAt:     time.Unix(b.snap.CreatedAt, 0).UTC(),
		lastSignInAt:  time.Unix(b.snap.LastSignInAt, 0).UTC(),
		providers:     providers,
		latch:         newInvalidationLatch(),
		accounts:      b.accounts,
		identity:      b.identity,
		profiles:      b.profiles,
		store:         b.store,
		sink:          b.sink,
		audit:         newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:       metrics,
	}

	s.tokens = newTokenCache(b.exchanger, b.config.Token.ExpirySkew, metrics, TokenState{
		IDToken:      b.snap.IDToken,
		ExpiresAt:    time.Unix(b.snap.TokenExpiresAt, 0).UTC(),
		RefreshToken: b.snap.RefreshToken,
	})

	return s, nil
}
