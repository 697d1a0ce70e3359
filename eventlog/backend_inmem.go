package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
)

// InMemory is a process-local repo.EventRepository, grounded on
// InMemoryEventRepository: an append-only slice filtered by plan_id on
// read, filtered by age on Retain.
type InMemory struct {
	mu     sync.RWMutex
	events []domain.Event
}

// NewInMemory constructs an empty InMemory event log.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Append(_ context.Context, events ...domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		e.Payload = flattenVolatile(e.Payload)
		m.events = append(m.events, e)
	}
	return nil
}

func (m *InMemory) ByPlan(_ context.Context, planID string) ([]domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Event
	for _, e := range m.events {
		if e.PlanID == planID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *InMemory) Retain(_ context.Context, olderThanDays int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	kept := m.events[:0]
	deleted := 0
	for _, e := range m.events {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return deleted, nil
}
