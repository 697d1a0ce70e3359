package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type tempEntry struct {
	content   string
	createdAt time.Time
}

// Registry holds spilled large-response bodies in memory under an opaque
// file_id, mirroring write_temp/read_lines/cleanup_temp_file/
// sweep_temp_files. The original spills to a real OS temp file; this
// module keeps bytes in memory since the Go process never shells out to a
// separate interpreter that would need its own filesystem handle.
type Registry struct {
	mu      sync.Mutex
	entries map[string]tempEntry
	maxAge  time.Duration
}

// NewRegistry constructs a Registry. maxAge <= 0 defaults to 5 minutes,
// matching sweep_temp_files' default max_age_seconds=300.
func NewRegistry(maxAge time.Duration) *Registry {
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	return &Registry{entries: make(map[string]tempEntry), maxAge: maxAge}
}

// WriteTemp records content under a fresh file_id.
func (r *Registry) WriteTemp(content string) string {
	fileID := uuid.NewString()
	r.mu.Lock()
	r.entries[fileID] = tempEntry{content: content, createdAt: time.Now().UTC()}
	r.mu.Unlock()
	return fileID
}

// ReadLines returns up to n lines of the file starting at start, mirroring
// read_lines's slice-of-splitlines behavior.
func (r *Registry) ReadLines(fileID string, start, n int) []string {
	r.mu.Lock()
	entry, ok := r.entries[fileID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	lines := strings.Split(entry.content, "\n")
	if start < 0 || start >= len(lines) {
		return nil
	}
	end := start + n
	if n <= 0 || end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

// readContent returns the full spilled body for a file_id.
func (r *Registry) readContent(fileID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[fileID]
	return entry.content, ok
}

// Cleanup removes a file_id's entry, reporting whether it existed.
func (r *Registry) Cleanup(fileID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[fileID]; !ok {
		return false
	}
	delete(r.entries, fileID)
	return true
}

// Sweep removes entries older than the registry's maxAge, mirroring
// sweep_temp_files, and returns the removed file_ids.
func (r *Registry) Sweep() []string {
	cutoff := time.Now().UTC().Add(-r.maxAge)
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for fileID, entry := range r.entries {
		if entry.createdAt.Before(cutoff) {
			delete(r.entries, fileID)
			removed = append(removed, fileID)
		}
	}
	return removed
}

// Sweeper runs Registry.Sweep on a fixed interval in the background,
// following the same Start/Stop ticker shape as eventlog.Sweeper.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSweeper constructs a Sweeper. interval <= 0 defaults to 1 minute.
func NewSweeper(registry *Registry, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{registry: registry, interval: interval}
}

// Start begins the background sweep loop. It errors if already running.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("extract: sweeper already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(loopCtx)
	return nil
}

// Stop halts the background sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
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
			s.registry.Sweep()
		}
	}
}
