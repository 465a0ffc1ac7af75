package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamzasaleh12/stadium-booking-system/internal/pkg/logger"
)

// BookingSweeper は終了済み予約を完了状態にするインターフェース
type BookingSweeper interface {
	CompleteExpiredBookings(ctx context.Context) (int, error)
}

// BookingCompleter は終了時刻を過ぎた予約を完了状態へ掃き出すワーカー
// エラーは記録するだけで伝播させず、次のティックで自然に再試行する
type BookingCompleter struct {
	bookingService BookingSweeper
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewBookingCompleter は新しいワーカーを作成
func NewBookingCompleter(bs BookingSweeper, interval time.Duration) *BookingCompleter {
	return &BookingCompleter{
		bookingService: bs,
		interval:       interval,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はワーカーを開始
func (c *BookingCompleter) Start(ctx context.Context) {
	logger.Info("予約完了スイーパー開始", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("予約完了スイーパー停止（コンテキストキャンセル）")
			return
		case <-c.stopCh:
			logger.Info("予約完了スイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

// Stop はワーカーを停止
func (c *BookingCompleter) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

// sweep は終了済み予約を一括で完了状態にする
func (c *BookingCompleter) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("終了済み予約のスイープ開始")

	count, err := c.bookingService.CompleteExpiredBookings(ctx)
	if err != nil {
		log.Error("終了済み予約のスイープ失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("終了済み予約を完了状態に更新", zap.Int("count", count))
	} else {
		log.Debug("終了済み予約なし")
	}
}
