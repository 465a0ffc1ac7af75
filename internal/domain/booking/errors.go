package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound          = errors.New("予約が見つかりません")
	ErrTimeConflict             = errors.New("指定の時間帯は既に予約されています")
	ErrConcurrentUpdate         = errors.New("他のリクエストと競合しました。再試行してください")
	ErrInvalidBookingState      = errors.New("キャンセル済みまたは完了済みの予約は変更できません")
	ErrModificationWindowClosed = errors.New("開始6時間前を過ぎた予約は変更・キャンセルできません")
	ErrNotBookingOwner          = errors.New("この予約の所有者ではありません")
	ErrInvalidTimeRange         = errors.New("終了時刻は開始時刻より後である必要があります")
	ErrTimeInPast               = errors.New("開始・終了時刻は未来の時刻を指定してください")
	ErrBookingTooShort          = errors.New("予約時間が短すぎます")
	ErrBookingTooLong           = errors.New("予約時間が長すぎます")
	ErrBadGranularity           = errors.New("予約時間は30分単位である必要があります")
	ErrStadiumIDRequired        = errors.New("スタジアムIDは必須です")
	ErrUserIDRequired           = errors.New("ユーザーIDは必須です")
	ErrNoteTooLong              = errors.New("メモは255文字以内である必要があります")
)
