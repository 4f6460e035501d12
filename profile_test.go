package goSession

import (
	"context"
	"errors"
	"testing"
)

func TestProfileCommitSendsOnlyStagedFields(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	change := session.ProfileChangeRequest().SetPhotoURL("https://img.example.com/a.png")
	if err := change.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	backend.mu.Lock()
	changes := backend.lastChanges
	backend.mu.Unlock()

	if !changes.PhotoURL.Set() || changes.PhotoURL.Value() != "https://img.example.com/a.png" {
		t.Fatalf("expected staged photo url, got %+v", changes.PhotoURL)
	}
	if changes.DisplayName.Set() || changes.DisplayName.Cleared() {
		t.Fatal("display name was never staged and must not appear in the payload")
	}

	if got := session.PhotoURL(); got != "https://img.example.com/a.png" {
		t.Fatalf("expected merged photo url, got %q", got)
	}
	if got := session.DisplayName(); got != "Alice" {
		t.Fatalf("display name must be untouched, got %q", got)
	}
}

func TestProfileClearIsDistinctFromUnset(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	change := session.ProfileChangeRequest().ClearDisplayName()
	if err := change.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	backend.mu.Lock()
	changes := backend.lastChanges
	backend.mu.Unlock()

	if !changes.DisplayName.Cleared() {
		t.Fatal("expected display name staged as cleared")
	}
	if got := session.DisplayName(); got != "" {
		t.Fatalf("expected cleared display name, got %q", got)
	}
}

func TestProfileStagingIsLastWriteWins(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	change := session.ProfileChangeRequest().
		SetDisplayName("First").
		ClearDisplayName().
		SetDisplayName("Final")
	if err := change.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if got := session.DisplayName(); got != "Final" {
		t.Fatalf("expected last staged value, got %q", got)
	}
}

func TestProfileDoubleCommitPanics(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	change := session.ProfileChangeRequest().SetDisplayName("Alice Smith")
	if err := change.Commit(context.Background()); err != nil {
		t.Fatalf("first Commit failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected second Commit to panic")
		}
	}()
	_ = change.Commit(context.Background())
}

func TestProfileStageAfterCommitPanics(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	change := session.ProfileChangeRequest().SetDisplayName("Alice Smith")
	if err := change.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected staging after commit to panic")
		}
	}()
	change.SetPhotoURL("https://img.example.com/late.png")
}

func TestProfileFailedCommitIsRetryable(t *testing.T) {
	backend := newMockBackend()
	transient := errors.New("backend unreachable")
	backend.updateFn = func() (*AccountUpdate, error) {
		return nil, transient
	}
	session, _, _ := newTestSession(t, backend, testSnapshot())

	change := session.ProfileChangeRequest().SetDisplayName("Alice Smith")
	if err := change.Commit(context.Background()); !errors.Is(err, transient) {
		t.Fatalf("expected transient error, got %v", err)
	}

	// Session state untouched by the failed commit.
	if got := session.DisplayName(); got != "Alice" {
		t.Fatalf("failed commit must not merge, got %q", got)
	}

	backend.mu.Lock()
	backend.updateFn = nil
	backend.mu.Unlock()

	if err := change.Commit(context.Background()); err != nil {
		t.Fatalf("retry Commit failed: %v", err)
	}
	if got := session.DisplayName(); got != "Alice Smith" {
		t.Fatalf("expected merged display name after retry, got %q", got)
	}
}

func TestProfileEmptyCommitSkipsBackend(t *testing.T) {
	backend := newMockBackend()
	session, _, _ := newTestSession(t, backend, testSnapshot())

	if err := session.ProfileChangeRequest().Commit(context.Background()); err != nil {
		t.Fatalf("empty Commit failed: %v", err)
	}
	if _, account, _, _, _, _ := backend.counts(); account != 0 {
		t.Fatal("empty commit must not reach the backend")
	}
}
