package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/stadium"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/transaction"
)

// stadiumRow はDBの行を表す構造体
type stadiumRow struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	Location        string     `db:"location"`
	PricePerHour    float64    `db:"price_per_hour"`
	BallRentalFee   float64    `db:"ball_rental_fee"`
	OpenMinute      int        `db:"open_minute"`
	CloseMinute     int        `db:"close_minute"`
	OwnerID         string     `db:"owner_id"`
	LastLockAttempt *time.Time `db:"last_lock_attempt"`
	Status          string     `db:"status"`
	Version         int        `db:"version"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r *stadiumRow) toEntity() *stadium.Stadium {
	return &stadium.Stadium{
		ID:              r.ID,
		Name:            r.Name,
		Location:        r.Location,
		PricePerHour:    r.PricePerHour,
		BallRentalFee:   r.BallRentalFee,
		OpenAt:          stadium.TimeOfDay(r.OpenMinute),
		CloseAt:         stadium.TimeOfDay(r.CloseMinute),
		OwnerID:         r.OwnerID,
		LastLockAttempt: r.LastLockAttempt,
		Status:          stadium.Status(r.Status),
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

const stadiumColumns = `id, name, location, price_per_hour, ball_rental_fee, open_minute, close_minute, owner_id, last_lock_attempt, status, version, created_at, updated_at`

// StadiumRepository はスタジアムリポジトリのPostgreSQL実装
type StadiumRepository struct {
	db *sqlx.DB
}

// NewStadiumRepository はStadiumRepositoryを作成する
func NewStadiumRepository(db *sqlx.DB) *StadiumRepository {
	return &StadiumRepository{db: db}
}

// Create は新しいスタジアムを作成する
func (r *StadiumRepository) Create(ctx context.Context, s *stadium.Stadium) error {
	query := `
		INSERT INTO stadiums (name, location, price_per_hour, ball_rental_fee, open_minute, close_minute, owner_id, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query,
		s.Name, s.Location, s.PricePerHour, s.BallRentalFee, int(s.OpenAt), int(s.CloseAt), s.OwnerID, string(s.Status), s.Version, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID); err != nil {
		return fmt.Errorf("スタジアム作成に失敗しました: %w", err)
	}
	return nil
}

// GetActiveByID はIDから有効なスタジアムを取得する
func (r *StadiumRepository) GetActiveByID(ctx context.Context, id string) (*stadium.Stadium, error) {
	var row stadiumRow
	query := `SELECT ` + stadiumColumns + ` FROM stadiums WHERE id = $1 AND status = 'active'`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stadium.ErrStadiumNotFound
		}
		return nil, fmt.Errorf("スタジアム取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は有効なスタジアム一覧を取得する
func (r *StadiumRepository) List(ctx context.Context, limit, offset int) ([]*stadium.Stadium, error) {
	query := `SELECT ` + stadiumColumns + ` FROM stadiums WHERE status = 'active' ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var rows []stadiumRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("スタジアム一覧取得に失敗しました: %w", err)
	}

	result := make([]*stadium.Stadium, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

// Update はスタジアムを更新する（楽観的ロック）
func (r *StadiumRepository) Update(ctx context.Context, s *stadium.Stadium) error {
	query := `
		UPDATE stadiums
		SET name = $1, location = $2, price_per_hour = $3, ball_rental_fee = $4,
		    open_minute = $5, close_minute = $6, updated_at = $7, version = version + 1
		WHERE id = $8 AND version = $9 AND status = 'active'
	`
	result, err := r.db.ExecContext(ctx, query,
		s.Name, s.Location, s.PricePerHour, s.BallRentalFee, int(s.OpenAt), int(s.CloseAt), time.Now(), s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("スタジアム更新に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return r.staleOrMissing(ctx, s.ID)
	}

	s.Version++
	return nil
}

// SoftDelete はスタジアムを削除状態にする
// 予約履歴を保全するため物理削除はしない
func (r *StadiumRepository) SoftDelete(ctx context.Context, id string, version int) error {
	query := `
		UPDATE stadiums
		SET status = 'deleted', updated_at = $1, version = version + 1
		WHERE id = $2 AND version = $3 AND status = 'active'
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("スタジアム削除に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return r.staleOrMissing(ctx, id)
	}
	return nil
}

// TouchLockAttempt は予約確定と同一トランザクションで last_lock_attempt を更新する
// 同一スタジアムへ同時にコミットしようとするトランザクションは
// この行更新で直列化され、遅れた側はバージョン不一致で失敗する
func (r *StadiumRepository) TouchLockAttempt(ctx context.Context, tx transaction.Tx, id string, version int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errTxRequired
	}

	query := `
		UPDATE stadiums
		SET last_lock_attempt = NOW(), updated_at = NOW(), version = version + 1
		WHERE id = $1 AND version = $2 AND status = 'active'
	`
	result, err := sqlxTx.ExecContext(ctx, query, id, version)
	if err != nil {
		return fmt.Errorf("スタジアムのロック更新に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return stadium.ErrConcurrentUpdate
	}
	return nil
}

// IsOwnedBy は指定ユーザーがスタジアムの所有者かを返す
func (r *StadiumRepository) IsOwnedBy(ctx context.Context, id, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM stadiums WHERE id = $1 AND owner_id = $2 AND status = 'active')`
	if err := r.db.GetContext(ctx, &exists, query, id, userID); err != nil {
		return false, fmt.Errorf("所有者確認に失敗しました: %w", err)
	}
	return exists, nil
}

// staleOrMissing は更新0件の原因（不在か競合か）を判定して返す
func (r *StadiumRepository) staleOrMissing(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM stadiums WHERE id = $1 AND status = 'active')`, id); err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if exists {
		return stadium.ErrConcurrentUpdate
	}
	return stadium.ErrStadiumNotFound
}

var _ stadium.Repository = (*StadiumRepository)(nil)
