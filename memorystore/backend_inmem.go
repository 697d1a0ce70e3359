package memorystore

import (
	"context"
	"strings"
	"sync"

	"github.com/Shubhamnegi/agent-core/domain"
)

// InMemoryBackend is a process-local Backend, grounded on
// InMemoryMemoryRepository: a plain map keyed by namespaced key, with search
// implemented as a case-insensitive substring match over "{key} {value}".
// Suitable for tests and local development; production deployments back
// Store with MongoBackend instead.
type InMemoryBackend struct {
	mu      sync.RWMutex
	records map[string]domain.MemoryRecord
}

// NewInMemoryBackend constructs an empty InMemoryBackend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{records: make(map[string]domain.MemoryRecord)}
}

func (b *InMemoryBackend) Put(_ context.Context, rec domain.MemoryRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[rec.NamespacedKey] = rec
	return nil
}

func (b *InMemoryBackend) Get(_ context.Context, namespacedKey string) (*domain.MemoryRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.records[namespacedKey]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (b *InMemoryBackend) Search(_ context.Context, tenantID, sessionID string, scope domain.MemoryScope, query string, topK int) ([]domain.MemoryRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lowered := strings.ToLower(strings.TrimSpace(query))
	var results []domain.MemoryRecord
	for _, rec := range b.records {
		if rec.TenantID != tenantID || rec.Scope != scope {
			continue
		}
		if scope == domain.ScopeSession && rec.SessionID != sessionID {
			continue
		}
		if lowered != "" && !strings.Contains(strings.ToLower(haystack(rec)), lowered) {
			continue
		}
		results = append(results, rec)
		if len(results) >= topK {
			break
		}
	}
	return results, nil
}

func haystack(rec domain.MemoryRecord) string {
	fp, err := Fingerprint(rec.Value)
	if err != nil {
		fp = ""
	}
	return rec.Label + " " + fp
}
