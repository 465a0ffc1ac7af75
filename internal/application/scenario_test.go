//go:build integration
// +build integration

package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamzasaleh12/stadium-booking-system/internal/config"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/booking"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/identity"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/transaction"
	"github.com/hamzasaleh12/stadium-booking-system/internal/infrastructure/postgres"
	redisinfra "github.com/hamzasaleh12/stadium-booking-system/internal/infrastructure/redis"
)

// testEnv は実DB・Redisに接続した統合テスト環境
// リポジトリも公開し、サービス層の検証を迂回した行の投入に使う
type testEnv struct {
	bookingService *BookingService
	stadiumService *StadiumService
	bookingRepo    booking.Repository
	txManager      transaction.Manager
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	cfg := config.Load()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		t.Skipf("DB接続エラー: %v", err)
	}

	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host: cfg.Redis.Host, Port: cfg.Redis.Port,
	})
	if err != nil {
		t.Skipf("Redis接続エラー: %v", err)
	}
	lockManager := redisinfra.NewLockManager(redisClient)
	scheduleCache := redisinfra.NewScheduleCache(redisClient)

	bookingRepo := postgres.NewBookingRepository(db)
	stadiumRepo := postgres.NewStadiumRepository(db)
	txManager := postgres.NewTxManager(db)

	env := &testEnv{
		bookingService: NewBookingService(txManager, bookingRepo, stadiumRepo,
			lockManager, scheduleCache, nil, booking.DefaultDurationPolicy()),
		stadiumService: NewStadiumService(stadiumRepo),
		bookingRepo:    bookingRepo,
		txManager:      txManager,
	}

	cleanup := func() {
		db.Exec("DELETE FROM bookings")
		db.Exec("DELETE FROM stadiums")
		redisClient.Close()
		db.Close()
	}

	return env, cleanup
}

// insertBooking はサービス層を通さずに予約行を直接投入する
// 過去の時間帯などAPI経由では作れない状態を用意するために使う
func insertBooking(t *testing.T, env *testEnv, b *booking.Booking) {
	t.Helper()
	tx, err := env.txManager.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.bookingRepo.Create(context.Background(), tx, b))
	require.NoError(t, tx.Commit())
}

// TestScenario_FullBookingFlow は予約の完全なフローをテストします
// スタジアム作成 → 予約 → 変更 → スケジュール確認 → キャンセル
func TestScenario_FullBookingFlow(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	bookingService, stadiumService := env.bookingService, env.stadiumService

	ctx := context.Background()
	manager := identity.Principal{UserID: "manager-ito", Role: identity.RoleManager}
	player := identity.Principal{UserID: "user-tanaka", Role: identity.RolePlayer}

	st, err := stadiumService.CreateStadium(ctx, manager, CreateStadiumInput{
		Name: "統合テストアリーナ", PricePerHour: 100, BallRentalFee: 20,
		OpenAt: "09:00", CloseAt: "22:00",
	})
	require.NoError(t, err)

	day := time.Now().AddDate(0, 0, 7)
	start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)

	b, err := bookingService.CreateBooking(ctx, player, CreateBookingInput{
		StadiumID: st.ID, StartTime: start, EndTime: start.Add(2 * time.Hour),
		Note: "統合テスト予約",
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Equal(t, 220.0, b.TotalPrice)

	// 隣接する時間帯（端が接するだけ）は予約できる
	_, err = bookingService.CreateBooking(ctx, player, CreateBookingInput{
		StadiumID: st.ID, StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour),
	})
	require.NoError(t, err)

	// 重複する時間帯は拒否される
	_, err = bookingService.CreateBooking(ctx, player, CreateBookingInput{
		StadiumID: st.ID, StartTime: start.Add(time.Hour), EndTime: start.Add(3 * time.Hour),
	})
	assert.ErrorIs(t, err, booking.ErrTimeConflict)

	// スケジュールに2件見える
	slots, err := bookingService.GetDaySchedule(ctx, st.ID, start)
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	// キャンセル後は空きになる（キャッシュは無効化される）
	_, err = bookingService.CancelBooking(ctx, player, b.ID)
	require.NoError(t, err)

	slots, err = bookingService.GetDaySchedule(ctx, st.ID, start)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

// TestScenario_ConcurrentBooking は同じ時間帯への並行予約が1件だけ成功することを確認します
func TestScenario_ConcurrentBooking(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	bookingService, stadiumService := env.bookingService, env.stadiumService

	ctx := context.Background()
	manager := identity.Principal{UserID: "manager-ito", Role: identity.RoleManager}

	st, err := stadiumService.CreateStadium(ctx, manager, CreateStadiumInput{
		Name: "並行テストアリーナ", PricePerHour: 100, BallRentalFee: 0,
		OpenAt: "09:00", CloseAt: "22:00",
	})
	require.NoError(t, err)

	day := time.Now().AddDate(0, 0, 7)
	start := time.Date(day.Year(), day.Month(), day.Day(), 14, 0, 0, 0, time.UTC)

	const numGoroutines = 10
	var successCount, conflictCount int32
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(userNum int) {
			defer wg.Done()
			p := identity.Principal{
				UserID: fmt.Sprintf("user-%02d", userNum),
				Role:   identity.RolePlayer,
			}
			_, err := bookingService.CreateBooking(ctx, p, CreateBookingInput{
				StadiumID: st.ID, StartTime: start, EndTime: start.Add(2 * time.Hour),
			})
			if err == nil {
				atomic.AddInt32(&successCount, 1)
			} else {
				atomic.AddInt32(&conflictCount, 1)
			}
		}(i)
	}
	wg.Wait()

	// 同一時間帯の予約は1件だけ成功する
	assert.Equal(t, int32(1), successCount, "成功は1件だけ")
	assert.Equal(t, int32(numGoroutines-1), conflictCount, "残りは全て失敗")
}

// TestScenario_Sweeper は終了済みの confirmed 予約だけが完了状態になることを確認します
func TestScenario_Sweeper(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	bookingService, stadiumService := env.bookingService, env.stadiumService

	ctx := context.Background()
	manager := identity.Principal{UserID: "manager-ito", Role: identity.RoleManager}
	player := identity.Principal{UserID: "user-tanaka", Role: identity.RolePlayer}

	st, err := stadiumService.CreateStadium(ctx, manager, CreateStadiumInput{
		Name: "スイープテストアリーナ", PricePerHour: 100, BallRentalFee: 0,
		OpenAt: "00:00", CloseAt: "23:59",
	})
	require.NoError(t, err)

	// 未来の予約（スイープ対象外）
	day := time.Now().AddDate(0, 0, 7)
	start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)
	future, err := bookingService.CreateBooking(ctx, player, CreateBookingInput{
		StadiumID: st.ID, StartTime: start, EndTime: start.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	// 終了済みの confirmed 予約（スイープ対象）はリポジトリ経由で直接投入する
	yesterday := time.Now().Add(-24 * time.Hour)
	expired := booking.NewBooking(st.ID, player.UserID, yesterday.Add(-2*time.Hour), yesterday, "")
	insertBooking(t, env, expired)

	// 終了済みでもキャンセル済みの予約はスイープ対象外
	cancelledPast := booking.NewBooking(st.ID, player.UserID, yesterday.Add(-6*time.Hour), yesterday.Add(-4*time.Hour), "")
	cancelledPast.Status = booking.StatusCancelled
	insertBooking(t, env, cancelledPast)

	count, err := bookingService.CompleteExpiredBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := env.bookingRepo.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, got.Status)

	got, err = env.bookingRepo.GetByID(ctx, cancelledPast.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)

	got, err = env.bookingRepo.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)
}
