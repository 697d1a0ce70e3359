// Package repo declares the repository ports the orchestrator depends on:
// Plan, Memory, Event, Soul and Session. Concrete adapters live in
// memorystore, eventlog and the in-memory implementations below; production
// deployments back these with Mongo and Redis.
package repo

import (
	"context"

	"github.com/Shubhamnegi/agent-core/domain"
)

type (
	// PlanRepository persists Plan aggregates, keyed by PlanID.
	PlanRepository interface {
		Save(ctx context.Context, plan *domain.Plan) error
		Load(ctx context.Context, planID string) (*domain.Plan, error)
	}

	// MemoryRepository is the write/read/search surface memory tool adapters
	// depend on. memorystore.Store implements it.
	MemoryRepository interface {
		Write(ctx context.Context, req MemoryWriteRequest) (namespacedKey string, err error)
		Read(ctx context.Context, namespacedKey string, releaseLock bool) (*domain.MemoryRecord, error)
		Search(ctx context.Context, tenantID, userID, sessionID, queryText string, scope domain.MemoryScope, topK int) ([]domain.MemoryRecord, error)
	}
)

// MemoryWriteRequest carries the fields needed to validate and persist one
// memory record. memorystore.WriteRequest is an alias of this type so
// memorystore.Store satisfies MemoryRepository without repo importing it.
type MemoryWriteRequest struct {
	TenantID   string
	SessionID  string
	TaskID     string
	Label      string
	Value      map[string]any
	ReturnSpec map[string]string
	Scope      domain.MemoryScope
}

type (
	// EventRepository appends and queries the durable event trace.
	EventRepository interface {
		Append(ctx context.Context, events ...domain.Event) error
		ByPlan(ctx context.Context, planID string) ([]domain.Event, error)
		// Retain deletes events older than olderThan relative to now.
		Retain(ctx context.Context, olderThan int) (int, error)
	}

	// SoulRepository stores per-tenant persona/policy documents.
	SoulRepository interface {
		Upsert(ctx context.Context, soul *domain.Soul) error
		Get(ctx context.Context, tenantID string) (*domain.Soul, error)
	}

	// SessionRepository tracks per-(tenant,user,session) state. EnsureExists reports whether the session was newly created.
	SessionRepository interface {
		EnsureExists(ctx context.Context, tenantID, userID, sessionID string) (sess *domain.Session, created bool, err error)
		Persist(ctx context.Context, sess *domain.Session) error
	}
)
