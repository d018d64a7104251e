package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLocker(t *testing.T) (*miniredis.Miniredis, *RedisLocker) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisLocker(client, 10*time.Second)
}

func TestRedisLocker_LockAndRelease(t *testing.T) {
	mr, locker := setupTestLocker(t)

	unlock, err := locker.Lock(context.Background(), "DEV-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKeyPrefix+"DEV-1"))
	assert.Equal(t, 10*time.Second, mr.TTL(lockKeyPrefix+"DEV-1"))

	unlock()
	assert.False(t, mr.Exists(lockKeyPrefix+"DEV-1"))
}

func TestRedisLocker_ContendedLockTimesOut(t *testing.T) {
	_, locker := setupTestLocker(t)

	unlock, err := locker.Lock(context.Background(), "DEV-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "DEV-1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := locker.Lock(context.Background(), "DEV-2")
	require.NoError(t, err)
	other()
}

func TestRedisLocker_WaiterAcquiresAfterRelease(t *testing.T) {
	_, locker := setupTestLocker(t)

	unlock, err := locker.Lock(context.Background(), "DEV-1")
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	unlock2, err := locker.Lock(ctx, "DEV-1")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	mr, locker := setupTestLocker(t)

	unlock, err := locker.Lock(context.Background(), "DEV-1")
	require.NoError(t, err)

	// the lock expired and another instance took it
	require.NoError(t, mr.Set(lockKeyPrefix+"DEV-1", "someone-else"))
	unlock()

	got, err := mr.Get(lockKeyPrefix + "DEV-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_ExpiredLockGoesToNextWriter(t *testing.T) {
	mr, locker := setupTestLocker(t)

	unlock, err := locker.Lock(context.Background(), "DEV-1")
	require.NoError(t, err)
	first, err := mr.Get(lockKeyPrefix + "DEV-1")
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)
	assert.False(t, mr.Exists(lockKeyPrefix+"DEV-1"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock2, err := locker.Lock(ctx, "DEV-1")
	require.NoError(t, err)
	second, err := mr.Get(lockKeyPrefix + "DEV-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// the stale holder must not free the new holder's lock
	unlock()
	got, err := mr.Get(lockKeyPrefix + "DEV-1")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	unlock2()
	assert.False(t, mr.Exists(lockKeyPrefix+"DEV-1"))
}
