package goSession

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestReauthenticateInstallsFreshTokens(t *testing.T) {
	backend := newMockBackend()
	session, store, _ := newTestSession(t, backend, testSnapshot())

	cred := Credential{ProviderID: "password", Params: map[string]string{"password": "hunter2"}}
	if err := session.ReauthenticateWithCredential(context.Background(), cred); err != nil {
		t.Fatalf("ReauthenticateWithCredential failed: %v", err)
	}

	if got := session.TokenState().IDToken; got != "reauth-token" {
		t.Fatalf("expected reauth token installed, got %q", got)
	}
	if store.saveCount() == 0 {
		t.Fatal("expected a snapshot save after reauthentication")
	}
	if got := session.metrics.Value(MetricReauthSuccess); got != 1 {
		t.Fatalf("expected reauth counter 1, got %d", got)
	}
}

func TestReauthenticateUserMismatchLeavesSessionUntouched(t *testing.T) {
	backend := newMockBackend()
	backend.verifyFn = func(credential Credential) (*VerificationResult, error) {
		return &VerificationResult{
			UID:   "someone-else",
			Token: TokenResponse{IDToken: "other-token", ExpiresIn: time.Hour},
		}, nil
	}
	session, store, _ := newTestSession(t, backend, testSnapshot())

	before := session.TokenState()
	beforeProviders := session.ProviderData()

	err := session.ReauthenticateWithCredential(context.Background(), Credential{ProviderID: "password"})
	if !errors.Is(err, ErrUserMismatch) {
		t.Fatalf("expected ErrUserMismatch, got %v", err)
	}

	if got := session.TokenState(); got != before {
		t.Fatalf("token state disturbed by mismatch: %+v != %+v", got, before)
	}
	if got := session.ProviderData(); !reflect.DeepEqual(got, beforeProviders) {
		t.Fatalf("provider data disturbed by mismatch: %v", got)
	}
	if !session.Valid() {
		t.Fatal("mismatch must not invalidate the session")
	}
	if store.saveCount() != 0 {
		t.Fatal("mismatch must not persist a snapshot")
	}
	if got := session.metrics.Value(MetricReauthUserMismatch); got != 1 {
		t.Fatalf("expected mismatch counter 1, got %d", got)
	}
}

func TestReauthenticateWrongPassword(t *testing.T) {
	backend := newMockBackend()
	backend.verifyFn = func(Credential) (*VerificationResult, error) {
		return nil, ErrWrongPassword
	}
	session, _, _ := newTestSession(t, backend, testSnapshot())

	err := session.ReauthenticateWithCredential(context.Background(), Credential{ProviderID: "password"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if !session.Valid() {
		t.Fatal("wrong password must not invalidate the session")
	}
}

func TestReauthenticateMergesProviderRecord(t *testing.T) {
	backend := newMockBackend()
	backend.verifyFn = func(credential Credential) (*VerificationResult, error) {
		return &VerificationResult{
			UID:   "user-1",
			Token: TokenResponse{IDToken: "reauth-token", ExpiresIn: time.Hour},
			Provider: &ProviderRecord{
				ProviderID:  "password",
				UID:         "user-1",
				DisplayName: "Alice Updated",
			},
		}, nil
	}
	session, _, _ := newTestSession(t, backend, testSnapshot())

	if err := session.ReauthenticateWithCredential(context.Background(), Credential{ProviderID: "password"}); err != nil {
		t.Fatalf("ReauthenticateWithCredential failed: %v", err)
	}

	providers := session.ProviderData()
	if len(providers) != 1 {
		t.Fatalf("expected record replaced in place, got %d providers", len(providers))
	}
	if providers[0].DisplayName != "Alice Updated" {
		t.Fatalf("expected merged provider record, got %+v", providers[0])
	}
}

func TestReauthenticateWithProvider(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	provider := federatedStub{credential: Credential{ProviderID: "google.com"}}
	if err := session.ReauthenticateWithProvider(context.Background(), provider); err != nil {
		t.Fatalf("ReauthenticateWithProvider failed: %v", err)
	}
	if got := session.TokenState().IDToken; got != "reauth-token" {
		t.Fatalf("expected reauth token installed, got %q", got)
	}
}

func TestReauthenticateProviderFlowFailure(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	flowErr := errors.New("user cancelled")
	provider := federatedStub{err: flowErr}
	if err := session.ReauthenticateWithProvider(context.Background(), provider); !errors.Is(err, flowErr) {
		t.Fatalf("expected flow error, got %v", err)
	}
	if _, _, verify, _, _, _ := backend.counts(); verify != 0 {
		t.Fatal("failed flow must not reach the identity service")
	}
}
