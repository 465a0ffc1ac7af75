package stadium

import (
	"context"

	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/transaction"
)

// Repository はスタジアムリポジトリのインターフェース
type Repository interface {
	// Create は新しいスタジアムを作成する
	Create(ctx context.Context, s *Stadium) error

	// GetActiveByID はIDから有効なスタジアムを取得する
	// 削除済み（status = deleted）は存在しない扱いとする
	GetActiveByID(ctx context.Context, id string) (*Stadium, error)

	// List は有効なスタジアム一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Stadium, error)

	// Update はスタジアムを更新する（楽観的ロック）
	Update(ctx context.Context, s *Stadium) error

	// SoftDelete はスタジアムを削除状態にする（物理削除はしない）
	SoftDelete(ctx context.Context, id string, version int) error

	// TouchLockAttempt は予約確定と同一トランザクションで
	// last_lock_attempt を更新し、バージョンを進める
	// バージョンが一致しない場合は ErrConcurrentUpdate を返す
	TouchLockAttempt(ctx context.Context, tx transaction.Tx, id string, version int) error

	// IsOwnedBy は指定ユーザーがスタジアムの所有者かを返す
	IsOwnedBy(ctx context.Context, id, userID string) (bool, error)
}
