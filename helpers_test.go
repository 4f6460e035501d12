package goSession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sessionkit/goSession/snapshot"
)

// mockBackend implements every collaborator interface in memory. Override
// the function fields to script failures; the defaults succeed.
type mockBackend struct {
	mu sync.Mutex

	exchangeCalls int
	accountCalls  int
	verifyCalls   int
	linkCalls     int
	unlinkCalls   int
	fetchCalls    int

	exchangeFn func(refreshToken string) (*TokenResponse, error)
	updateFn   func() (*AccountUpdate, error)
	sendFn     func() error
	deleteFn   func() error
	verifyFn   func(credential Credential) (*VerificationResult, error)
	linkFn     func(credential Credential) (*VerificationResult, error)
	unlinkFn   func(providerID string) error
	fetchFn    func() (*AccountProfile, error)

	lastChanges ProfileChanges
}

func newMockBackend() *mockBackend {
	return &mockBackend{}
}

func (m *mockBackend) counts() (exchange, account, verify, link, unlink, fetch int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exchangeCalls, m.accountCalls, m.verifyCalls, m.linkCalls, m.unlinkCalls, m.fetchCalls
}

func (m *mockBackend) Exchange(_ context.Context, refreshToken string) (*TokenResponse, error) {
	m.mu.Lock()
	m.exchangeCalls++
	fn := m.exchangeFn
	m.mu.Unlock()

	if fn != nil {
		return fn(refreshToken)
	}
	return &TokenResponse{IDToken: "fresh-token", ExpiresIn: time.Hour}, nil
}

func (m *mockBackend) account() (*AccountUpdate, error) {
	m.mu.Lock()
	m.accountCalls++
	fn := m.updateFn
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil, nil
}

func (m *mockBackend) UpdateEmail(_ context.Context, _, email string) (*AccountUpdate, error) {
	update, err := m.account()
	if update == nil && err == nil {
		return &AccountUpdate{Email: &email}, nil
	}
	return update, err
}

func (m *mockBackend) UpdatePassword(_ context.Context, _, _ string) (*AccountUpdate, error) {
	return m.account()
}

func (m *mockBackend) UpdatePhoneNumber(_ context.Context, _ string, _ PhoneCredential) (*AccountUpdate, error) {
	return m.account()
}

func (m *mockBackend) UpdateProfile(_ context.Context, _ string, changes ProfileChanges) (*AccountUpdate, error) {
	m.mu.Lock()
	m.lastChanges = changes
	m.mu.Unlock()
	return m.account()
}

func (m *mockBackend) SendEmailVerification(_ context.Context, _ string, _ *ActionCodeSettings) error {
	m.mu.Lock()
	m.accountCalls++
	fn := m.sendFn
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

func (m *mockBackend) SendEmailVerificationBeforeUpdate(_ context.Context, _, _ string, _ *ActionCodeSettings) error {
	m.mu.Lock()
	m.accountCalls++
	fn := m.sendFn
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

func (m *mockBackend) DeleteAccount(_ context.Context, _ string) error {
	m.mu.Lock()
	m.accountCalls++
	fn := m.deleteFn
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

func (m *mockBackend) Verify(_ context.Context, credential Credential) (*VerificationResult, error) {
	m.mu.Lock()
	m.verifyCalls++
	fn := m.verifyFn
	m.mu.Unlock()

	if fn != nil {
		return fn(credential)
	}
	return &VerificationResult{
		UID:   "user-1",
		Token: TokenResponse{IDToken: "reauth-token", ExpiresIn: time.Hour},
		Provider: &ProviderRecord{
			ProviderID: credential.ProviderID,
			UID:        "user-1",
		},
	}, nil
}

func (m *mockBackend) Link(_ context.Context, _ string, credential Credential) (*VerificationResult, error) {
	m.mu.Lock()
	m.linkCalls++
	fn := m.linkFn
	m.mu.Unlock()

	if fn != nil {
		return fn(credential)
	}
	return &VerificationResult{
		UID:   "user-1",
		Token: TokenResponse{IDToken: "link-token", ExpiresIn: time.Hour},
		Provider: &ProviderRecord{
			ProviderID: credential.ProviderID,
			UID:        "user-1",
		},
	}, nil
}

func (m *mockBackend) Unlink(_ context.Context, _, providerID string) error {
	m.mu.Lock()
	m.unlinkCalls++
	fn := m.unlinkFn
	m.mu.Unlock()

	if fn != nil {
		return fn(providerID)
	}
	return nil
}

func (m *mockBackend) Fetch(_ context.Context, _ string) (*AccountProfile, error) {
	m.mu.Lock()
	m.fetchCalls++
	fn := m.fetchFn
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return &AccountProfile{
		UID:           "user-1",
		Email:         "alice@example.com",
		EmailVerified: true,
		DisplayName:   "Alice",
	}, nil
}

// mockStore records snapshot saves and deletes.
type mockStore struct {
	mu      sync.Mutex
	saves   []*snapshot.Snapshot
	deletes []string
	saveErr error
}

func (s *mockStore) Save(_ context.Context, snap *snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, snap)
	return nil
}

func (s *mockStore) Delete(_ context.Context, _, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, uid)
	return nil
}

func (s *mockStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *mockStore) lastSave() *snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

// mockSink counts invalidation notifications.
type mockSink struct {
	mu   sync.Mutex
	uids []string
}

func (s *mockSink) NotifyInvalidated(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uids = append(s.uids, uid)
}

func (s *mockSink) notified() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.uids))
	copy(out, s.uids)
	return out
}

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		SchemaVersion: snapshot.CurrentSchemaVersion,
		UID:           "user-1",
		Email:         "alice@example.com",
		EmailVerified: true,
		DisplayName:   "Alice",
		CreatedAt:     time.Now().Add(-720 * time.Hour).Unix(),
		LastSignInAt:  time.Now().Unix(),
		Providers: []snapshot.ProviderRecord{
			{ProviderID: "password", UID: "user-1", Email: "alice@example.com"},
		},
		IDToken:        "warm-token",
		TokenExpiresAt: time.Now().Add(time.Hour).Unix(),
		RefreshToken:   "refresh-1",
		Valid:          true,
	}
}

func newTestSession(t *testing.T, backend *mockBackend, snap *snapshot.Snapshot) (*Session, *mockStore, *mockSink) {
	t.Helper()

	store := &mockStore{}
	sink := &mockSink{}

	session, err := New().
		WithSnapshot(snap).
		WithTokenExchanger(backend).
		WithAccountService(backend).
		WithIdentityService(backend).
		WithProfileService(backend).
		WithSnapshotStore(store).
		WithInvalidationSink(sink).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(session.Close)

	return session, store, sink
}
