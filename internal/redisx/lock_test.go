package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*CycleLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewCycleLocker(NewClient(mr.Addr(), "", ""), "cartwall:cycle"), mr
}

func TestAcquireAndRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	release, acquired, err := locker.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
	assert.True(t, mr.Exists("cartwall:cycle"))

	release()
	assert.False(t, mr.Exists("cartwall:cycle"))
}

func TestSecondAcquireBlocked(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	release, acquired, err := locker.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
	defer release()

	_, acquired, err = locker.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestReleaseOnlyOwnLease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	release, acquired, err := locker.Acquire(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	// lease expires and another instance takes it
	mr.FastForward(time.Second)
	release2, acquired, err := locker.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
	defer release2()

	// the stale release must not delete the new owner's lease
	release()
	assert.True(t, mr.Exists("cartwall:cycle"))
}
