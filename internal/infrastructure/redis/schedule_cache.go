package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/booking"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

// ScheduleCache はスタジアムの日別予約スケジュールのキャッシュ
// 予約の作成・変更・キャンセル時に該当日を無効化する
type ScheduleCache struct {
	client *redis.Client
}

// NewScheduleCache は新しいScheduleCacheを作成する
func NewScheduleCache(client *redis.Client) *ScheduleCache {
	return &ScheduleCache{client: client}
}

// Get はスタジアムの指定日のスケジュールをキャッシュから取得する
func (c *ScheduleCache) Get(ctx context.Context, stadiumID, day string) ([]booking.TimeSlot, error) {
	data, err := c.client.Get(ctx, scheduleKey(stadiumID, day)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗しました: %w", err)
	}

	var slots []booking.TimeSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("キャッシュの解析に失敗しました: %w", err)
	}
	return slots, nil
}

// Set はスタジアムの指定日のスケジュールをキャッシュに保存する
func (c *ScheduleCache) Set(ctx context.Context, stadiumID, day string, slots []booking.TimeSlot, ttl time.Duration) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("キャッシュの変換に失敗しました: %w", err)
	}
	if err := c.client.Set(ctx, scheduleKey(stadiumID, day), data, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗しました: %w", err)
	}
	return nil
}

// Invalidate は指定日のキャッシュを無効化する
func (c *ScheduleCache) Invalidate(ctx context.Context, stadiumID string, days ...string) error {
	if len(days) == 0 {
		return nil
	}
	keys := make([]string, len(days))
	for i, day := range days {
		keys[i] = scheduleKey(stadiumID, day)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗しました: %w", err)
	}
	return nil
}

func scheduleKey(stadiumID, day string) string {
	return fmt.Sprintf("schedule:%s:%s", stadiumID, day)
}
