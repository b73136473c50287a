package service

import (
	"context"
	"sync"
	"time"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

type stubUserRepo struct {
	users map[int64]*domain.UserRecord
	err   error
	calls int
}

func newStubUserRepo(users ...*domain.UserRecord) *stubUserRepo {
	r := &stubUserRepo{users: make(map[int64]*domain.UserRecord)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) FindActive(_ context.Context, userID, tenantID int64) (*domain.UserRecord, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[userID]
	if !ok || !u.IsActive || u.TenantID != tenantID {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindActiveByEmail(_ context.Context, email string) (*domain.UserRecord, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email && u.IsActive {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubSessionRepo struct {
	sessions map[string]domain.SessionRecord
	err      error
	calls    int
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]domain.SessionRecord)}
}

func (r *stubSessionRepo) Exists(_ context.Context, userID int64, sessionID string, now time.Time) (bool, error) {
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	s, ok := r.sessions[sessionID]
	return ok && s.UserID == userID && !s.Expired(now), nil
}

func (r *stubSessionRepo) Create(_ context.Context, s domain.SessionRecord) error {
	if r.err != nil {
		return r.err
	}
	r.sessions[s.SessionID] = s
	return nil
}

func (r *stubSessionRepo) Revoke(_ context.Context, userID int64, sessionID string) error {
	if r.err != nil {
		return r.err
	}
	if s, ok := r.sessions[sessionID]; ok && s.UserID == userID {
		delete(r.sessions, sessionID)
	}
	return nil
}

type stubAuditSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *stubAuditSink) Publish(ev domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *stubAuditSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Action)
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }
