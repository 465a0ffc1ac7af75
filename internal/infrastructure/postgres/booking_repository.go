package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/booking"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/transaction"
)

var errTxRequired = errors.New("トランザクションが必要です")

// bookingRow はDBの行を表す構造体
type bookingRow struct {
	ID         string    `db:"id"`
	StadiumID  string    `db:"stadium_id"`
	UserID     string    `db:"user_id"`
	StartTime  time.Time `db:"start_time"`
	EndTime    time.Time `db:"end_time"`
	TotalPrice float64   `db:"total_price"`
	Note       *string   `db:"note"`
	Status     string    `db:"status"`
	Version    int       `db:"version"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	var note string
	if r.Note != nil {
		note = *r.Note
	}
	return &booking.Booking{
		ID:         r.ID,
		StadiumID:  r.StadiumID,
		UserID:     r.UserID,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		TotalPrice: r.TotalPrice,
		Note:       note,
		Status:     booking.Status(r.Status),
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

const bookingColumns = `id, stadium_id, user_id, start_time, end_time, total_price, note, status, version, created_at, updated_at`

// BookingRepository は予約リポジトリのPostgreSQL実装
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository はBookingRepositoryを作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は新しい予約を作成する（トランザクション必須）
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errTxRequired
	}

	var note *string
	if b.Note != "" {
		note = &b.Note
	}

	query := `
		INSERT INTO bookings (stadium_id, user_id, start_time, end_time, total_price, note, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	if err := sqlxTx.QueryRowContext(ctx, query,
		b.StadiumID, b.UserID, b.StartTime, b.EndTime, b.TotalPrice, note, string(b.Status), b.Version, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID); err != nil {
		return fmt.Errorf("予約作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから予約を取得する
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は条件に一致する予約一覧を取得する
func (r *BookingRepository) List(ctx context.Context, f booking.Filter, limit, offset int) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1 = 1`
	args := []interface{}{}

	if f.StadiumID != "" {
		args = append(args, f.StadiumID)
		query += fmt.Sprintf(" AND stadium_id = $%d", len(args))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}

	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

// Update は予約を更新する（楽観的ロック、トランザクション必須）
func (r *BookingRepository) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errTxRequired
	}

	var note *string
	if b.Note != "" {
		note = &b.Note
	}

	query := `
		UPDATE bookings
		SET stadium_id = $1, start_time = $2, end_time = $3, total_price = $4,
		    note = $5, status = $6, updated_at = $7, version = version + 1
		WHERE id = $8 AND version = $9
	`
	result, err := sqlxTx.ExecContext(ctx, query,
		b.StadiumID, b.StartTime, b.EndTime, b.TotalPrice, note, string(b.Status), b.UpdatedAt, b.ID, b.Version,
	)
	if err != nil {
		return fmt.Errorf("予約更新に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		// 不在と競合を区別する
		var exists bool
		if err := sqlxTx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, b.ID); err != nil {
			return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
		}
		if exists {
			return booking.ErrConcurrentUpdate
		}
		return booking.ErrBookingNotFound
	}

	b.Version++
	return nil
}

// HasConflict は [start,end) と重なる未キャンセル予約の有無を返す
// 半開区間なので端が接するだけの予約は競合しない
func (r *BookingRepository) HasConflict(ctx context.Context, tx transaction.Tx, stadiumID string, start, end time.Time, excludeID string) (bool, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return false, errTxRequired
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE stadium_id = $1
			  AND status <> 'cancelled'
			  AND $3 > start_time AND $2 < end_time
	`
	args := []interface{}{stadiumID, start, end}
	if excludeID != "" {
		args = append(args, excludeID)
		query += ` AND id <> $4`
	}
	query += `)`

	var exists bool
	if err := sqlxTx.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("競合チェックに失敗しました: %w", err)
	}
	return exists, nil
}

// ListForStadiumBetween はスタジアムの [from,to) と重なる未キャンセル予約を取得する
func (r *BookingRepository) ListForStadiumBetween(ctx context.Context, stadiumID string, from, to time.Time) ([]*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE stadium_id = $1
		  AND status <> 'cancelled'
		  AND $3 > start_time AND $2 < end_time
		ORDER BY start_time
	`
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, stadiumID, from, to); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}

	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

// CompleteExpired は終了時刻を過ぎた confirmed 予約を一括で completed に更新する
func (r *BookingRepository) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = $1, version = version + 1
		WHERE status = 'confirmed' AND end_time < $1
	`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("期限切れ予約の更新に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	return int(rows), nil
}

var _ booking.Repository = (*BookingRepository)(nil)
