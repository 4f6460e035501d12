package internaldefs

import (
	goSession "github.com/sessionkit/goSession"
)

// CounterDef binds a core metric ID to its exported name and help text.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exported name and help text.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs is the canonical export table. Exporters iterate it so every
// backend exposes the same names in the same order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricTokenCacheHit, Name: "gosession_token_cache_hit_total", Help: "ID token requests served from cache."},
	{ID: goSession.MetricTokenRefreshSuccess, Name: "gosession_token_refresh_success_total", Help: "Successful token exchanges."},
	{ID: goSession.MetricTokenRefreshFailure, Name: "gosession_token_refresh_failure_total", Help: "Failed token exchanges."},
	{ID: goSession.MetricTokenRefreshCoalesced, Name: "gosession_token_refresh_coalesced_total", Help: "Callers attached to an in-flight refresh."},
	{ID: goSession.MetricAccountMutationSuccess, Name: "gosession_account_mutation_success_total", Help: "Successful account mutations."},
	{ID: goSession.MetricAccountMutationFailure, Name: "gosession_account_mutation_failure_total", Help: "Failed account mutations."},
	{ID: goSession.MetricRecentLoginRequired, Name: "gosession_recent_login_required_total", Help: "Mutations rejected pending reauthentication."},
	{ID: goSession.MetricProfileCommitSuccess, Name: "gosession_profile_commit_success_total", Help: "Committed profile change requests."},
	{ID: goSession.MetricProfileCommitFailure, Name: "gosession_profile_commit_failure_total", Help: "Failed profile commits."},
	{ID: goSession.MetricLinkSuccess, Name: "gosession_link_success_total", Help: "Providers linked."},
	{ID: goSession.MetricLinkFailure, Name: "gosession_link_failure_total", Help: "Failed link attempts."},
	{ID: goSession.MetricLinkDuplicateRejected, Name: "gosession_link_duplicate_rejected_total", Help: "Link attempts rejected for an already linked provider."},
	{ID: goSession.MetricUnlinkSuccess, Name: "gosession_unlink_success_total", Help: "Providers unlinked."},
	{ID: goSession.MetricUnlinkFailure, Name: "gosession_unlink_failure_total", Help: "Failed unlink attempts."},
	{ID: goSession.MetricUnlinkMissingRejected, Name: "gosession_unlink_missing_rejected_total", Help: "Unlink attempts rejected for a provider that is not linked."},
	{ID: goSession.MetricReauthSuccess, Name: "gosession_reauth_success_total", Help: "Successful reauthentications."},
	{ID: goSession.MetricReauthFailure, Name: "gosession_reauth_failure_total", Help: "Failed reauthentications."},
	{ID: goSession.MetricReauthUserMismatch, Name: "gosession_reauth_user_mismatch_total", Help: "Reauthentications rejected for a different user."},
	{ID: goSession.MetricReloadSuccess, Name: "gosession_reload_success_total", Help: "Successful profile reloads."},
	{ID: goSession.MetricReloadFailure, Name: "gosession_reload_failure_total", Help: "Failed profile reloads."},
	{ID: goSession.MetricEmailVerificationSent, Name: "gosession_email_verification_sent_total", Help: "Verification emails requested."},
	{ID: goSession.MetricAccountDeleted, Name: "gosession_account_deleted_total", Help: "Accounts deleted."},
	{ID: goSession.MetricSessionInvalidated, Name: "gosession_session_invalidated_total", Help: "Session validity latch trips."},
	{ID: goSession.MetricStaleSessionRejected, Name: "gosession_stale_session_rejected_total", Help: "Operations rejected on an invalidated session."},
	{ID: goSession.MetricSnapshotSaveFailure, Name: "gosession_snapshot_save_failure_total", Help: "Best-effort snapshot saves that failed."},
}

// HistogramDefs mirrors CounterDefs for histograms.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricTokenRefreshLatency, Name: "gosession_token_refresh_latency_seconds", Help: "Token exchange latency histogram."},
}

// HistogramBounds are the bucket upper bounds in seconds, matching the core
// histogram layout.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are metric-name-safe renderings of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed core
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form both
// Prometheus and OpenTelemetry expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
