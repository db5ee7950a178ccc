package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func TestLocalLockerAcquireAndRelease(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "ticket_number_2026", time.Second, time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))

	unlock, err = locker.Acquire(ctx, "ticket_number_2026", time.Second, time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocalLockerBoundedWait(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "busy", time.Second, time.Second)
	require.NoError(t, err)
	defer unlock(ctx)

	start := time.Now()
	_, err = locker.Acquire(ctx, "busy", time.Second, 80*time.Millisecond)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "RESOURCE_BUSY"))
	assert.Less(t, time.Since(start), time.Second, "gave up within the wait bound")
}

func TestLocalLockerIndependentNames(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "ticket_number_2025", time.Second, time.Second)
	require.NoError(t, err)
	defer unlock(ctx)

	other, err := locker.Acquire(ctx, "ticket_number_2026", time.Second, 50*time.Millisecond)
	require.NoError(t, err, "locks for different years do not contend")
	require.NoError(t, other(ctx))
}

func TestLocalLockerWakesWaiter(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "handoff", time.Second, time.Second)
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		second, err := locker.Acquire(ctx, "handoff", time.Second, time.Second)
		if err == nil {
			err = second(ctx)
		}
		acquired <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, unlock(ctx))

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestLocalLockerUnlockIdempotent(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "once", time.Second, time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx))
}
