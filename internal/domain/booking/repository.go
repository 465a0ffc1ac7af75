package booking

import (
	"context"
	"time"

	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/transaction"
)

// Filter は予約一覧の絞り込み条件
// 空文字のフィールドは条件に含めない
type Filter struct {
	StadiumID string
	UserID    string
}

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// List は条件に一致する予約一覧を取得する
	List(ctx context.Context, f Filter, limit, offset int) ([]*Booking, error)

	// Update は予約を更新する（楽観的ロック、トランザクション必須）
	// バージョンが一致しない場合は ErrConcurrentUpdate を返す
	Update(ctx context.Context, tx transaction.Tx, b *Booking) error

	// HasConflict は指定スタジアムの [start,end) と重なる未キャンセル予約が
	// 存在するかを返す。excludeID が空でない場合はその予約自身を除外する
	// 競合判定はコミット済みデータに対してトランザクション内で実行すること
	HasConflict(ctx context.Context, tx transaction.Tx, stadiumID string, start, end time.Time, excludeID string) (bool, error)

	// ListForStadiumBetween はスタジアムの [from,to) と重なる未キャンセル予約を取得する
	ListForStadiumBetween(ctx context.Context, stadiumID string, from, to time.Time) ([]*Booking, error)

	// CompleteExpired は終了時刻を過ぎた confirmed 予約を一括で completed に更新し、
	// 更新件数を返す。cancelled 予約には触れない
	CompleteExpired(ctx context.Context, now time.Time) (int, error)
}
