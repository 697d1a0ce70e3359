// Package inmem provides in-memory implementations of the Plan, Soul and
// Session repository ports, for tests and local development. Production
// deployments back these ports with a durable store; each type here uses
// defensive copy-on-read/write plus a single RWMutex.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
)

// PlanStore is an in-memory repo.PlanRepository. Safe for concurrent use.
type PlanStore struct {
	mu    sync.RWMutex
	plans map[string]domain.Plan
}

// NewPlanStore constructs an empty PlanStore.
func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[string]domain.Plan)}
}

// Save inserts or overwrites the plan keyed by PlanID. The stored value is a
// deep-enough copy (steps/replan history slices are copied) so later
// mutation of the caller's Plan does not leak into the store.
func (s *PlanStore) Save(_ context.Context, plan *domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *plan
	cp.Steps = append([]domain.PlanStep(nil), plan.Steps...)
	cp.ReplanHistory = append([]domain.ReplanEvent(nil), plan.ReplanHistory...)
	s.plans[plan.PlanID] = cp
	return nil
}

// Load retrieves the plan by ID, returning nil if absent (callers map that
// to HTTP 404.
func (s *PlanStore) Load(_ context.Context, planID string) (*domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok {
		return nil, nil
	}
	cp := p
	cp.Steps = append([]domain.PlanStep(nil), p.Steps...)
	cp.ReplanHistory = append([]domain.ReplanEvent(nil), p.ReplanHistory...)
	return &cp, nil
}

// SoulStore is an in-memory repo.SoulRepository.
type SoulStore struct {
	mu    sync.RWMutex
	souls map[string]domain.Soul
}

// NewSoulStore constructs an empty SoulStore.
func NewSoulStore() *SoulStore {
	return &SoulStore{souls: make(map[string]domain.Soul)}
}

// Upsert inserts or replaces the soul document for its TenantID.
func (s *SoulStore) Upsert(_ context.Context, soul *domain.Soul) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	soul.UpdatedAt = time.Now()
	s.souls[soul.TenantID] = *soul
	return nil
}

// Get retrieves the soul document for tenantID, returning nil if absent.
func (s *SoulStore) Get(_ context.Context, tenantID string) (*domain.Soul, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	soul, ok := s.souls[tenantID]
	if !ok {
		return nil, nil
	}
	return &soul, nil
}

// SessionStore is an in-memory repo.SessionRepository, keyed by the
// composite (tenant, user, session) triple.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore constructs an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func sessionKey(tenantID, userID, sessionID string) string {
	return tenantID + "/" + userID + "/" + sessionID
}

// EnsureExists creates the session record on first use; created reports
// whether this call created it, which the orchestrator uses to compute
// is_first_turn.
func (s *SessionStore) EnsureExists(_ context.Context, tenantID, userID, sessionID string) (*domain.Session, bool, error) {
	key := sessionKey(tenantID, userID, sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[key]; ok {
		cp := existing
		return &cp, false, nil
	}
	now := time.Now()
	sess := domain.Session{TenantID: tenantID, UserID: userID, SessionID: sessionID, CreatedAt: now, UpdatedAt: now}
	s.sessions[key] = sess
	cp := sess
	return &cp, true, nil
}

// Persist updates the stored session record (e.g. UpdatedAt bump after a turn).
func (s *SessionStore) Persist(_ context.Context, sess *domain.Session) error {
	key := sessionKey(sess.TenantID, sess.UserID, sess.SessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedAt = time.Now()
	s.sessions[key] = *sess
	return nil
}
