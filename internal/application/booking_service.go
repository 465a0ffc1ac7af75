package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/booking"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/identity"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/stadium"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/transaction"
	redislock "github.com/hamzasaleh12/stadium-booking-system/internal/infrastructure/redis"
	"github.com/hamzasaleh12/stadium-booking-system/internal/pkg/logger"
	"github.com/hamzasaleh12/stadium-booking-system/internal/pkg/metrics"
)

const (
	stadiumLockTTL   = 10 * time.Second
	lockMaxRetries   = 3
	lockRetryDelay   = 100 * time.Millisecond
	scheduleCacheTTL = 60 * time.Second
)

// BookingService は予約のライフサイクルと競合制御を担うサービス
//
// 予約の確定はスタジアム単位のRedisロック（直列化トークン）と
// 単一トランザクション内の競合チェック + スタジアムの楽観的ロック更新で守る。
// lockManager / scheduleCache / metrics はnilでも動作する（ユニットテスト用）
type BookingService struct {
	txManager     transaction.Manager
	bookingRepo   booking.Repository
	stadiumRepo   stadium.Repository
	lockManager   *redislock.LockManager
	scheduleCache *redislock.ScheduleCache
	metrics       *metrics.Metrics
	policy        booking.DurationPolicy
}

func NewBookingService(
	tm transaction.Manager,
	br booking.Repository,
	sr stadium.Repository,
	lm *redislock.LockManager,
	sc *redislock.ScheduleCache,
	m *metrics.Metrics,
	policy booking.DurationPolicy,
) *BookingService {
	return &BookingService{
		txManager:     tm,
		bookingRepo:   br,
		stadiumRepo:   sr,
		lockManager:   lm,
		scheduleCache: sc,
		metrics:       m,
		policy:        policy,
	}
}

type CreateBookingInput struct {
	StadiumID string
	StartTime time.Time
	EndTime   time.Time
	Note      string
}

type UpdateBookingInput struct {
	ID        string
	StadiumID *string
	StartTime *time.Time
	EndTime   *time.Time
	Note      *string
}

// CreateBooking は予約を作成する
//
// スタジアムロック取得 → スタジアム確認 → 検証・料金計算 →
// トランザクション内で競合チェック・挿入・スタジアムのバージョン更新、の順に進む。
// ロックが取れない場合とバージョン不一致はどちらも再試行可能な
// ErrConcurrentUpdate として返す（時間帯重複の ErrTimeConflict とは区別する）
func (s *BookingService) CreateBooking(ctx context.Context, p identity.Principal, input CreateBookingInput) (*booking.Booking, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ensureFutureTimes(time.Now(), &input.StartTime, &input.EndTime); err != nil {
		s.metrics.RecordBooking(metrics.OutcomeRejected)
		return nil, err
	}

	// スタジアム単位の直列化トークン
	release, err := s.acquireStadiumLock(ctx, input.StadiumID)
	if err != nil {
		s.metrics.RecordBooking(metrics.OutcomeConcurrentUpdate)
		return nil, err
	}
	defer release()

	st, err := s.stadiumRepo.GetActiveByID(ctx, input.StadiumID)
	if err != nil {
		return nil, err
	}

	b := booking.NewBooking(input.StadiumID, p.UserID, input.StartTime, input.EndTime, input.Note)
	if err := s.validateBooking(b, st); err != nil {
		s.metrics.RecordBooking(metrics.OutcomeRejected)
		return nil, err
	}
	b.TotalPrice = st.PriceFor(b.Hours())

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 競合チェックは書き込み前にコミット済みデータに対して行う
	conflict, err := s.bookingRepo.HasConflict(ctx, tx, b.StadiumID, b.StartTime, b.EndTime, "")
	if err != nil {
		return nil, fmt.Errorf("競合チェックに失敗しました: %w", err)
	}
	if conflict {
		s.metrics.RecordBooking(metrics.OutcomeConflict)
		return nil, booking.ErrTimeConflict
	}

	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		return nil, err
	}

	// 同時に確定しようとした別トランザクションはここで衝突する
	if err := s.stadiumRepo.TouchLockAttempt(ctx, tx, st.ID, st.Version); err != nil {
		if errors.Is(err, stadium.ErrConcurrentUpdate) {
			s.metrics.RecordBooking(metrics.OutcomeConcurrentUpdate)
			return nil, booking.ErrConcurrentUpdate
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗しました: %w", err)
	}

	s.invalidateSchedule(ctx, b.StadiumID, b.StartTime, b.EndTime)
	s.metrics.RecordBooking(metrics.OutcomeCreated)
	return b, nil
}

// UpdateBooking は予約の時間帯・スタジアム・メモを変更する
// 状態チェック → 所有者チェック → 変更期限チェックの順で判定する
// スタジアムが変わる場合は変更先に対してロック・競合チェック・営業時間・料金を判定する
func (s *BookingService) UpdateBooking(ctx context.Context, p identity.Principal, input UpdateBookingInput) (*booking.Booking, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ensureFutureTimes(time.Now(), input.StartTime, input.EndTime); err != nil {
		s.metrics.RecordBooking(metrics.OutcomeRejected)
		return nil, err
	}

	b, err := s.bookingRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !b.IsConfirmed() {
		return nil, booking.ErrInvalidBookingState
	}
	if !p.IsAdmin() {
		if b.UserID != p.UserID {
			return nil, booking.ErrNotBookingOwner
		}
		if b.IsModificationWindowClosed(time.Now()) {
			return nil, booking.ErrModificationWindowClosed
		}
	}

	// 変更先スタジアム（指定がなければ現在のスタジアム）
	targetStadiumID := b.StadiumID
	if input.StadiumID != nil && *input.StadiumID != "" {
		targetStadiumID = *input.StadiumID
	}

	release, err := s.acquireStadiumLock(ctx, targetStadiumID)
	if err != nil {
		s.metrics.RecordBooking(metrics.OutcomeConcurrentUpdate)
		return nil, err
	}
	defer release()

	st, err := s.stadiumRepo.GetActiveByID(ctx, targetStadiumID)
	if err != nil {
		return nil, err
	}

	oldStadiumID, oldStart, oldEnd := b.StadiumID, b.StartTime, b.EndTime
	b.StadiumID = targetStadiumID
	if input.StartTime != nil {
		b.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		b.EndTime = *input.EndTime
	}
	if input.Note != nil {
		b.Note = *input.Note
	}

	if err := s.validateBooking(b, st); err != nil {
		s.metrics.RecordBooking(metrics.OutcomeRejected)
		return nil, err
	}
	// 料金は変更のたびにサーバー側で再計算する
	b.TotalPrice = st.PriceFor(b.Hours())

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 自分自身は競合判定から除外する
	conflict, err := s.bookingRepo.HasConflict(ctx, tx, b.StadiumID, b.StartTime, b.EndTime, b.ID)
	if err != nil {
		return nil, fmt.Errorf("競合チェックに失敗しました: %w", err)
	}
	if conflict {
		s.metrics.RecordBooking(metrics.OutcomeConflict)
		return nil, booking.ErrTimeConflict
	}

	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		if errors.Is(err, booking.ErrConcurrentUpdate) {
			s.metrics.RecordBooking(metrics.OutcomeConcurrentUpdate)
		}
		return nil, err
	}
	if err := s.stadiumRepo.TouchLockAttempt(ctx, tx, st.ID, st.Version); err != nil {
		if errors.Is(err, stadium.ErrConcurrentUpdate) {
			s.metrics.RecordBooking(metrics.OutcomeConcurrentUpdate)
			return nil, booking.ErrConcurrentUpdate
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗しました: %w", err)
	}

	// スタジアムが変わった場合は移動元の日程キャッシュも消す
	s.invalidateSchedule(ctx, oldStadiumID, oldStart, oldEnd)
	s.invalidateSchedule(ctx, b.StadiumID, b.StartTime, b.EndTime)
	s.metrics.RecordBooking(metrics.OutcomeUpdated)
	return b, nil
}

// CancelBooking は予約をキャンセルする
// 終端状態からのキャンセルは管理者であっても許可しない
func (s *BookingService) CancelBooking(ctx context.Context, p identity.Principal, id string) (*booking.Booking, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsConfirmed() {
		return nil, booking.ErrInvalidBookingState
	}
	if !p.IsAdmin() {
		if b.UserID != p.UserID {
			return nil, booking.ErrNotBookingOwner
		}
		if b.IsModificationWindowClosed(time.Now()) {
			return nil, booking.ErrModificationWindowClosed
		}
	}

	if err := b.Cancel(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		if errors.Is(err, booking.ErrConcurrentUpdate) {
			s.metrics.RecordBooking(metrics.OutcomeConcurrentUpdate)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗しました: %w", err)
	}

	s.invalidateSchedule(ctx, b.StadiumID, b.StartTime, b.EndTime)
	s.metrics.RecordBooking(metrics.OutcomeCancelled)
	return b, nil
}

// GetBooking は予約を取得する
// player は自分の予約のみ、manager は自分のスタジアムの予約のみ参照できる
func (s *BookingService) GetBooking(ctx context.Context, p identity.Principal, id string) (*booking.Booking, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case p.IsAdmin():
	case p.IsManager():
		owned, err := s.stadiumRepo.IsOwnedBy(ctx, b.StadiumID, p.UserID)
		if err != nil {
			return nil, err
		}
		if !owned && b.UserID != p.UserID {
			return nil, identity.ErrAccessDenied
		}
	default:
		if b.UserID != p.UserID {
			return nil, identity.ErrAccessDenied
		}
	}
	return b, nil
}

// ListBookings はロールに応じた範囲で予約一覧を取得する
func (s *BookingService) ListBookings(ctx context.Context, p identity.Principal, stadiumID, userID string, limit, offset int) ([]*booking.Booking, error) {
	scope, err := identity.ResolveListScope(p, stadiumID, userID)
	if err != nil {
		return nil, err
	}

	// manager はスタジアムの所有者であることをリポジトリで確認する
	if p.IsManager() {
		owned, err := s.stadiumRepo.IsOwnedBy(ctx, scope.StadiumID, p.UserID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, identity.ErrAccessDenied
		}
	}

	if limit <= 0 {
		limit = 20
	}
	return s.bookingRepo.List(ctx, booking.Filter{StadiumID: scope.StadiumID, UserID: scope.UserID}, limit, offset)
}

// GetDaySchedule はスタジアムの指定日の予約済み時間帯を返す
// Redisキャッシュ（60秒TTL）経由で提供し、書き込み時に無効化される
func (s *BookingService) GetDaySchedule(ctx context.Context, stadiumID string, day time.Time) ([]booking.TimeSlot, error) {
	dayKey := day.Format("2006-01-02")

	if s.scheduleCache != nil {
		slots, err := s.scheduleCache.Get(ctx, stadiumID, dayKey)
		if err == nil {
			return slots, nil
		}
		if !errors.Is(err, redislock.ErrCacheMiss) {
			logger.Warn("スケジュールキャッシュの取得に失敗しました",
				zap.String("stadium_id", stadiumID), zap.Error(err))
		}
	}

	if _, err := s.stadiumRepo.GetActiveByID(ctx, stadiumID); err != nil {
		return nil, err
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)
	bookings, err := s.bookingRepo.ListForStadiumBetween(ctx, stadiumID, from, to)
	if err != nil {
		return nil, err
	}

	slots := make([]booking.TimeSlot, len(bookings))
	for i, b := range bookings {
		slots[i] = booking.TimeSlot{StartTime: b.StartTime, EndTime: b.EndTime, Status: b.Status}
	}

	if s.scheduleCache != nil {
		if err := s.scheduleCache.Set(ctx, stadiumID, dayKey, slots, scheduleCacheTTL); err != nil {
			logger.Warn("スケジュールキャッシュの保存に失敗しました",
				zap.String("stadium_id", stadiumID), zap.Error(err))
		}
	}
	return slots, nil
}

// CompleteExpiredBookings は終了時刻を過ぎた confirmed 予約を completed に一括更新する
func (s *BookingService) CompleteExpiredBookings(ctx context.Context) (int, error) {
	count, err := s.bookingRepo.CompleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	s.metrics.RecordSwept(count)
	return count, nil
}

// ensureFutureTimes は指定された時刻が未来であることを検証する
// 省略されたフィールド（nil）は既存の値を引き継ぐため対象外
func ensureFutureTimes(now time.Time, times ...*time.Time) error {
	for _, ts := range times {
		if ts != nil && !ts.After(now) {
			return booking.ErrTimeInPast
		}
	}
	return nil
}

// validateBooking は検証を 時間範囲 → 長さ → 刻み → 営業時間 の順で行う
func (s *BookingService) validateBooking(b *booking.Booking, st *stadium.Stadium) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.policy.Validate(b.StartTime, b.EndTime); err != nil {
		return err
	}
	if !st.IsOpenFor(b.StartTime, b.EndTime) {
		return stadium.ErrOutsideOperatingHours
	}
	return nil
}

// acquireStadiumLock はスタジアムロックを取得し、解放関数を返す
// Redisが構成されていない場合は何もしない（DB側の楽観的ロックのみで守る）
func (s *BookingService) acquireStadiumLock(ctx context.Context, stadiumID string) (func(), error) {
	if s.lockManager == nil {
		return func() {}, nil
	}

	start := time.Now()
	lock, err := s.lockManager.AcquireWithRetry(ctx, stadiumID, stadiumLockTTL, lockMaxRetries, lockRetryDelay)
	if err != nil {
		s.recordLockDuration("acquire", "failed", time.Since(start))
		if errors.Is(err, redislock.ErrLockNotAcquired) {
			return nil, booking.ErrConcurrentUpdate
		}
		return nil, err
	}
	s.recordLockDuration("acquire", "success", time.Since(start))

	return func() {
		start := time.Now()
		if err := lock.Release(ctx); err != nil {
			s.recordLockDuration("release", "failed", time.Since(start))
			logger.Warn("スタジアムロックの解放に失敗しました",
				zap.String("stadium_id", stadiumID), zap.Error(err))
			return
		}
		s.recordLockDuration("release", "success", time.Since(start))
	}, nil
}

func (s *BookingService) recordLockDuration(operation, status string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.StadiumLockDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}

// invalidateSchedule は予約が触れた日のキャッシュを無効化する（ベストエフォート）
func (s *BookingService) invalidateSchedule(ctx context.Context, stadiumID string, start, end time.Time) {
	if s.scheduleCache == nil {
		return
	}

	days := []string{start.Format("2006-01-02")}
	if d := end.Format("2006-01-02"); d != days[0] {
		days = append(days, d)
	}
	if err := s.scheduleCache.Invalidate(ctx, stadiumID, days...); err != nil {
		logger.Warn("スケジュールキャッシュの無効化に失敗しました",
			zap.String("stadium_id", stadiumID), zap.Error(err))
	}
}
