package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_AcquireRelease(t *testing.T) {
	l := NewInMemory(100 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "k1", "task-a", time.Minute))
	l.Release(ctx, "k1")
	require.NoError(t, l.Acquire(ctx, "k1", "task-b", time.Minute))
}

func TestInMemory_ContentionTimesOut(t *testing.T) {
	l := NewInMemory(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "k1", "task-a", time.Minute))
	err := l.Acquire(ctx, "k1", "task-b", time.Minute)
	assert.Error(t, err)
}

func TestInMemory_SameOwnerReacquires(t *testing.T) {
	l := NewInMemory(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "k1", "task-a", time.Minute))
	require.NoError(t, l.Acquire(ctx, "k1", "task-a", time.Minute))
}

func TestInMemory_ExpiredLockIsReclaimed(t *testing.T) {
	l := NewInMemory(200 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "k1", "task-a", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Acquire(ctx, "k1", "task-b", time.Minute))
}
