package goSession

import (
	"errors"
	"time"
)

// Config carries all tunables for a session. Configure before Build;
// sessions treat their config as immutable afterwards.
type Config struct {
	Token       TokenConfig
	Persistence PersistenceConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

// TokenConfig controls the token cache.
type TokenConfig struct {
	// ExpirySkew is the safety margin subtracted from the server-declared
	// token expiry when deciding whether the cached token is still usable.
	// A token within the skew window of real expiry is treated as expired
	// and refreshed. Default 5 minutes.
	ExpirySkew time.Duration
}

// PersistenceConfig controls snapshot persistence.
type PersistenceConfig struct {
	// SaveTimeout bounds each best-effort SnapshotStore.Save call.
	// Default 5 seconds.
	SaveTimeout time.Duration
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the emitter when the
	// buffer is full. Dropped events are counted.
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms additionally records token refresh latency.
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			ExpirySkew: 5 * time.Minute,
		},
		Persistence: PersistenceConfig{
			SaveTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; kept as a function so reference
	// fields added later get deep-copied in one place.
	return cfg
}

// Validate checks the configuration for values that would misbehave at
// runtime.
func (c Config) Validate() error {
	if c.Token.ExpirySkew < 0 {
		return errors.New("Token.ExpirySkew must not be negative")
	}
	if c.Token.ExpirySkew > 24*time.Hour {
		return errors.New("Token.ExpirySkew exceeds any plausible token lifetime")
	}
	if c.Persistence.SaveTimeout < 0 {
		return errors.New("Persistence.SaveTimeout must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit.BufferSize must not be negative")
	}
	return nil
}
