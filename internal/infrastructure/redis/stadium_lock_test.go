package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client, err := NewClient(&Config{Host: "localhost", Port: "6379"})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLockManager_Acquire(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("ロックを取得できる", func(t *testing.T) {
		lock, err := manager.Acquire(ctx, "test-stadium-1", 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)
		defer lock.Release(ctx)
	})

	t.Run("同じスタジアムのロックは取得できない", func(t *testing.T) {
		lock1, err := manager.Acquire(ctx, "test-stadium-2", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.Acquire(ctx, "test-stadium-2", 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		lock1, err := manager.Acquire(ctx, "test-stadium-3", 5*time.Second)
		require.NoError(t, err)

		err = lock1.Release(ctx)
		require.NoError(t, err)

		lock2, err := manager.Acquire(ctx, "test-stadium-3", 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("二重解放はErrLockNotOwned", func(t *testing.T) {
		lock, err := manager.Acquire(ctx, "test-stadium-4", 5*time.Second)
		require.NoError(t, err)

		require.NoError(t, lock.Release(ctx))
		assert.ErrorIs(t, lock.Release(ctx), ErrLockNotOwned)
	})
}

func TestLockManager_AcquireWithRetry(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("先行ロックの解放を待って取得できる", func(t *testing.T) {
		lock1, err := manager.Acquire(ctx, "test-stadium-retry", 5*time.Second)
		require.NoError(t, err)

		go func() {
			time.Sleep(250 * time.Millisecond)
			lock1.Release(ctx)
		}()

		lock2, err := manager.AcquireWithRetry(ctx, "test-stadium-retry", 5*time.Second, 5, 100*time.Millisecond)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("リトライ回数を超えるとErrLockNotAcquired", func(t *testing.T) {
		lock1, err := manager.Acquire(ctx, "test-stadium-exhaust", 10*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		_, err = manager.AcquireWithRetry(ctx, "test-stadium-exhaust", 5*time.Second, 2, 50*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
	})
}

func TestLockManager_並行取得は1つだけ成功する(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	manager := NewLockManager(client)

	const numGoroutines = 10
	var successCount int32
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := manager.Acquire(ctx, "test-stadium-concurrent", 5*time.Second)
			if err == nil {
				atomic.AddInt32(&successCount, 1)
				defer lock.Release(ctx)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successCount)
}
