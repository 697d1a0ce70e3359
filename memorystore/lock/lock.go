// Package lock provides the per-key write lock that memorystore.Store
// acquires before persisting a memory record. Locker has two
// implementations: an in-memory poll-and-retry lock mirroring the in-memory
// adapter's lock lifecycle, and a Redis-backed distributed lock built on
// SETNX, suitable for a multi-replica deployment.
package lock

import (
	"context"
	"time"
)

// Locker guards a namespaced key against concurrent writers. Acquire blocks
// (subject to ctx cancellation and an internal wait timeout) until either
// the lock is free, already owned by ownerTaskID, or the wait times out.
type Locker interface {
	Acquire(ctx context.Context, key, ownerTaskID string, ttl time.Duration) error
	Release(ctx context.Context, key string)
}
