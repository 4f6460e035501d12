package goSession

import (
	"context"
	"sync"
)

// ProfileField is a tri-state staged value: unset, set to a value, or
// explicitly cleared. The zero value is unset, which leaves the server-side
// field untouched.
type ProfileField struct {
	set     bool
	cleared bool
	value   string
}

// Set reports whether the field was staged with a value.
func (f ProfileField) Set() bool { return f.set }

// Cleared reports whether the field was staged for explicit removal.
func (f ProfileField) Cleared() bool { return f.cleared }

// Value returns the staged value. Meaningful only when Set is true.
func (f ProfileField) Value() string { return f.value }

func setField(value string) ProfileField {
	return ProfileField{set: true, value: value}
}

func clearedField() ProfileField {
	return ProfileField{cleared: true}
}

// ProfileChanges is the staged payload handed to the account service. A
// field that is neither set nor cleared must not appear in the outbound
// request at all.
type ProfileChanges struct {
	DisplayName ProfileField
	PhotoURL    ProfileField
}

func (c ProfileChanges) empty() bool {
	return !c.DisplayName.Set() && !c.DisplayName.Cleared() &&
		!c.PhotoURL.Set() && !c.PhotoURL.Cleared()
}

// ProfileChangeRequest stages display name and photo URL edits and applies
// them in a single commit. Staging is last-write-wins until Commit; a
// request can be committed at most once, and committing it again is a
// programming error that panics.
type ProfileChangeRequest struct {
	session *Session

	mu         sync.Mutex
	changes    ProfileChanges
	committing bool
	committed  bool
}

// ProfileChangeRequest starts a new staged profile edit.
func (s *Session) ProfileChangeRequest() *ProfileChangeRequest {
	return &ProfileChangeRequest{session: s}
}

// SetDisplayName stages a new display name.
func (r *ProfileChangeRequest) SetDisplayName(name string) *ProfileChangeRequest {
	r.stage(func(c *ProfileChanges) { c.DisplayName = setField(name) })
	return r
}

// ClearDisplayName stages explicit removal of the display name.
func (r *ProfileChangeRequest) ClearDisplayName() *ProfileChangeRequest {
	r.stage(func(c *ProfileChanges) { c.DisplayName = clearedField() })
	return r
}

// SetPhotoURL stages a new photo URL.
func (r *ProfileChangeRequest) SetPhotoURL(url string) *ProfileChangeRequest {
	r.stage(func(c *ProfileChanges) { c.PhotoURL = setField(url) })
	return r
}

// ClearPhotoURL stages explicit removal of the photo URL.
func (r *ProfileChangeRequest) ClearPhotoURL() *ProfileChangeRequest {
	r.stage(func(c *ProfileChanges) { c.PhotoURL = clearedField() })
	return r
}

func (r *ProfileChangeRequest) stage(apply func(*ProfileChanges)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.committed || r.committing {
		panic("goSession: profile change request staged after commit")
	}
	apply(&r.changes)
}

// Commit sends the staged fields to the backend and, on success, merges
// exactly those fields into the session. A failed commit leaves the request
// uncommitted so the caller may retry it. Committing twice panics.
func (r *ProfileChangeRequest) Commit(ctx context.Context) error {
	r.mu.Lock()
	if r.committed || r.committing {
		r.mu.Unlock()
		panic("goSession: profile change request committed twice")
	}
	r.committing = true
	changes := r.changes
	r.mu.Unlock()

	err := r.session.commitProfile(ctx, changes)

	r.mu.Lock()
	if err == nil {
		r.committed = true
	}
	r.committing = false
	r.mu.Unlock()
	return err
}

func (s *Session) commitProfile(ctx context.Context, changes ProfileChanges) error {
	if err := s.ensureLive(); err != nil {
		return err
	}

	if changes.empty() {
		// Nothing staged: commit succeeds without touching the backend.
		s.metrics.Inc(MetricProfileCommitSuccess)
		return nil
	}

	tok, _, err := s.tokens.token(ctx, false)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricProfileCommitFailure)
		s.emitAudit(ctx, auditEventProfileCommit, false, err, nil)
		return err
	}

	update, err := s.accounts.UpdateProfile(ctx, tok, changes)
	if err != nil {
		s.checkBackendError(ctx, err)
		s.metrics.Inc(MetricProfileCommitFailure)
		s.emitAudit(ctx, auditEventProfileCommit, false, err, nil)
		return err
	}

	if s.latch.Invalidated() {
		return ErrInvalidated
	}

	s.mu.Lock()
	if changes.DisplayName.Set() {
		s.displayName = changes.DisplayName.Value()
	} else if changes.DisplayName.Cleared() {
		s.displayName = ""
	}
	if changes.PhotoURL.Set() {
		s.photoURL = changes.PhotoURL.Value()
	} else if changes.PhotoURL.Cleared() {
		s.photoURL = ""
	}
	s.mu.Unlock()
	s.applyAccountUpdate(update)

	s.metrics.Inc(MetricProfileCommitSuccess)
	s.emitAudit(ctx, auditEventProfileCommit, true, nil, nil)
	s.persist(ctx)
	return nil
}
