// Package memorystore implements the memory read/write/search contract: a
// namespaced-key write path gated by a shape contract and a per-key lock, a
// substring search path, and the write-path dedup check used by
// save_user_memory/save_action_memory. It is built around pluggable Backend
// and lock.Locker implementations.
package memorystore

import (
	"context"
	"fmt"
	"time"

	"github.com/Shubhamnegi/agent-core/canonjson"
	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/memorystore/lock"
	"github.com/Shubhamnegi/agent-core/repo"
	"github.com/Shubhamnegi/agent-core/telemetry"
)

// Backend is the durable storage port memorystore.Store writes through.
// backend_inmem.go and backend_mongo.go provide concrete implementations.
type Backend interface {
	Put(ctx context.Context, rec domain.MemoryRecord) error
	Get(ctx context.Context, namespacedKey string) (*domain.MemoryRecord, error)
	Search(ctx context.Context, tenantID, sessionID string, scope domain.MemoryScope, query string, topK int) ([]domain.MemoryRecord, error)
}

// Embedder turns free text into a vector that Write stores on each record.
// Search does not use the vector. HashEmbedder is a deterministic,
// dependency-free implementation; any provider-backed embedder can be
// substituted behind this interface.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Store is the memory read/write/search surface the tools package and the
// replan/memory specialist depend on.
type Store struct {
	backend  Backend
	locker   lock.Locker
	embedder Embedder
	lockTTL  time.Duration
	logger   telemetry.Logger
	metrics  telemetry.Metrics
}

// Options configures a Store.
type Options struct {
	Backend  Backend
	Locker   lock.Locker
	Embedder Embedder
	LockTTL  time.Duration
	Logger   telemetry.Logger
	Metrics  telemetry.Metrics
}

// New constructs a Store. Embedder and telemetry default to no-ops; Backend
// and Locker are required.
func New(opts Options) (*Store, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("memorystore: backend is required")
	}
	if opts.Locker == nil {
		return nil, fmt.Errorf("memorystore: locker is required")
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}
	embedder := opts.Embedder
	if embedder == nil {
		embedder = HashEmbedder{Dimensions: 32}
	}
	return &Store{
		backend:  opts.Backend,
		locker:   opts.Locker,
		embedder: embedder,
		lockTTL:  ttl,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// WriteRequest carries the full set of fields needed to validate and persist
// one memory record. It is an alias of repo.MemoryWriteRequest so Store
// satisfies repo.MemoryRepository directly.
type WriteRequest = repo.MemoryWriteRequest

// Write validates the label and shape contract, acquires the per-key write
// lock, embeds the value, and persists the record. It returns the
// namespaced key on success.
func (s *Store) Write(ctx context.Context, req WriteRequest) (string, error) {
	if err := domain.ValidateLabel(req.Label); err != nil {
		return "", err
	}
	if err := MatchesReturnSpec(req.Value, req.ReturnSpec); err != nil {
		return "", err
	}
	if req.Scope == "" {
		req.Scope = domain.ScopeSession
	}

	namespacedKey := domain.NamespacedKey(req.TenantID, req.SessionID, req.TaskID, req.Label)

	if err := s.locker.Acquire(ctx, namespacedKey, req.TaskID, s.lockTTL); err != nil {
		s.metrics.IncCounter("memory_lock_timeout_total", 1, "scope", string(req.Scope))
		return "", domain.NewFailure(domain.KindMemoryLockTimeout, "memory_lock_timeout",
			fmt.Sprintf("timed out acquiring write lock for %s", namespacedKey))
	}

	embedding, err := s.embedder.Embed(ctx, fingerprintText(req.Value))
	if err != nil {
		s.logger.Warn(ctx, "memory_embed_failed", "key", namespacedKey, "error", err.Error())
	}

	now := time.Now().UTC()
	rec := domain.MemoryRecord{
		NamespacedKey:   namespacedKey,
		TenantID:        req.TenantID,
		SessionID:       req.SessionID,
		TaskID:          req.TaskID,
		Scope:           req.Scope,
		Label:           req.Label,
		Value:           req.Value,
		ReturnSpecShape: req.ReturnSpec,
		CreatedAt:       now,
		UpdatedAt:       now,
		Embedding:       embedding,
	}
	if err := s.backend.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("memorystore: put %s: %w", namespacedKey, err)
	}
	s.metrics.IncCounter("memory_write_total", 1, "scope", string(req.Scope))
	return namespacedKey, nil
}

// Read retrieves a record by namespaced key. When releaseLock is true the
// write lock is released as explicit confirmation that the orchestrator
// consumed the output, matching the original read-confirmed lock lifecycle.
func (s *Store) Read(ctx context.Context, namespacedKey string, releaseLock bool) (*domain.MemoryRecord, error) {
	rec, err := s.backend.Get(ctx, namespacedKey)
	if err != nil {
		return nil, fmt.Errorf("memorystore: get %s: %w", namespacedKey, err)
	}
	if releaseLock {
		s.locker.Release(ctx, namespacedKey)
	}
	return rec, nil
}

// Search runs a scoped lookup over stored memory records.
func (s *Store) Search(ctx context.Context, tenantID, userID, sessionID, query string, scope domain.MemoryScope, topK int) ([]domain.MemoryRecord, error) {
	_ = userID // not used for filtering, kept for parity with the read path's signature
	if topK <= 0 {
		topK = 5
	}
	return s.backend.Search(ctx, tenantID, sessionID, scope, query, topK)
}

func fingerprintText(value map[string]any) string {
	if s, ok := value["memory_text"].(string); ok && s != "" {
		return s
	}
	fp, err := canonjson.Fingerprint(value)
	if err != nil {
		return ""
	}
	return fp
}
