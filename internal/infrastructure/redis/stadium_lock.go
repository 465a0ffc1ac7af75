package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// StadiumLock はスタジアム単位の分散ロック
// 予約確定処理の直列化トークンとして使う
type StadiumLock struct {
	client *redis.Client
	key    string
	token  string
}

// LockManager はスタジアムロックを管理する
type LockManager struct {
	client *redis.Client
}

// NewLockManager は新しいLockManagerを作成する
func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// Acquire はスタジアムのロックを取得する
// SetNX によりキーが存在しない場合のみ取得できる
func (m *LockManager) Acquire(ctx context.Context, stadiumID string, ttl time.Duration) (*StadiumLock, error) {
	key := lockKey(stadiumID)
	token := uuid.New().String()

	ok, err := m.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗しました: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &StadiumLock{client: m.client, key: key, token: token}, nil
}

// AcquireWithRetry はリトライ付きでロックを取得する
func (m *LockManager) AcquireWithRetry(ctx context.Context, stadiumID string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (*StadiumLock, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lock, err := m.Acquire(ctx, stadiumID, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// releaseScript は所有者確認と削除をアトミックに行う
// TTL切れ後に他プロセスが取得したロックを誤って消さないため
const releaseScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// Release はロックを解放する
func (l *StadiumLock) Release(ctx context.Context) error {
	result, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗しました: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}

func lockKey(stadiumID string) string {
	return "lock:stadium:" + stadiumID
}
