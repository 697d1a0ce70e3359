// Package eventlog implements the append-only trace repo.EventRepository
// port: in-memory and Mongo-backed stores, plus a background retention
// sweeper that periodically deletes events older than a configured window.
// The sweep loop is grounded on the registry manager's StartSync/StopSync
// ticker pattern, generalized from per-registry catalog sync to a single
// periodic deletion pass.
package eventlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Shubhamnegi/agent-core/repo"
	"github.com/Shubhamnegi/agent-core/telemetry"
)

// Sweeper periodically calls Retain on an EventRepository, deleting events
// older than RetentionDays. Start/Stop follow the same
// context-cancel-then-WaitGroup-join shape the registry sync manager uses
// for its background sync loop.
type Sweeper struct {
	repo          repo.EventRepository
	interval      time.Duration
	retentionDays int
	logger        telemetry.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper constructs a Sweeper. interval <= 0 defaults to one hour.
func NewSweeper(eventRepo repo.EventRepository, retentionDays int, interval time.Duration, logger telemetry.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &Sweeper{repo: eventRepo, interval: interval, retentionDays: retentionDays, logger: logger}
}

// Start begins the background sweep loop. Calling Start twice without an
// intervening Stop returns an error.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("eventlog: sweeper already running")
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(sweepCtx)
	return nil
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	deleted, err := s.repo.Retain(ctx, s.retentionDays)
	if err != nil {
		s.logger.Error(ctx, "event_retention_sweep_failed", "error", err.Error())
		return
	}
	if deleted > 0 {
		s.logger.Info(ctx, "event_retention_swept", "deleted", deleted, "retention_days", s.retentionDays)
	}
}

// flattenVolatile returns a copy of payload in which every top-level string
// value longer than 4096 bytes is cut to that length and suffixed with
// "...(truncated)". Other values, including nested maps and slices, are
// copied unchanged; no field is dropped and none is re-encoded as JSON.
func flattenVolatile(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	const maxInlineLen = 4096
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if s, ok := v.(string); ok && len(s) > maxInlineLen {
			out[k] = s[:maxInlineLen] + "...(truncated)"
			continue
		}
		out[k] = v
	}
	return out
}
