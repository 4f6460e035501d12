package snapshot

// CurrentSchemaVersion is the schema version written by Encode.
const CurrentSchemaVersion = 1

// ProviderRecord is the cached profile data for one linked identity provider.
// Records are immutable once added to a session; relink and reload replace
// them wholesale.
type ProviderRecord struct {
	ProviderID  string `json:"provider_id"`
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Snapshot is the full persistable state of one session: profile fields,
// linked providers, token state, and the validity flag. It is what the
// sign-in collaborator hands to Builder and what the session writes back to
// its SnapshotStore after every successful mutation.
type Snapshot struct {
	SchemaVersion int `json:"schema_version"`

	UID           string `json:"uid"`
	TenantID      string `json:"tenant_id,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	DisplayName   string `json:"display_name,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	Anonymous     bool   `json:"anonymous"`

	// CreatedAt and LastSignInAt are Unix seconds.
	CreatedAt    int64 `json:"created_at"`
	LastSignInAt int64 `json:"last_sign_in_at"`

	Providers []ProviderRecord `json:"providers,omitempty"`

	IDToken string `json:"id_token,omitempty"`
	// TokenExpiresAt is the server-declared expiry of IDToken, Unix seconds.
	// Expiry skew is applied by the token cache at read time, not here.
	TokenExpiresAt int64  `json:"token_expires_at"`
	RefreshToken   string `json:"refresh_token,omitempty"`

	Valid bool `json:"valid"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	if len(s.Providers) > 0 {
		out.Providers = make([]ProviderRecord, len(s.Providers))
		copy(out.Providers, s.Providers)
	}
	return &out
}
