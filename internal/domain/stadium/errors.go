package stadium

import "errors"

// Stadium ドメインのエラー定義
var (
	ErrStadiumNotFound       = errors.New("スタジアムが見つからないか、現在利用できません")
	ErrConcurrentUpdate      = errors.New("スタジアムが他のリクエストによって更新されました。再試行してください")
	ErrNotStadiumOwner       = errors.New("このスタジアムの所有者ではありません")
	ErrOutsideOperatingHours = errors.New("営業時間外の時間帯は予約できません")
	ErrStadiumNameRequired   = errors.New("スタジアム名は必須です")
	ErrOwnerIDRequired       = errors.New("所有者IDは必須です")
	ErrInvalidPricePerHour   = errors.New("時間単価は0より大きい必要があります")
	ErrInvalidBallRentalFee  = errors.New("ボールレンタル料は0以上である必要があります")
	ErrInvalidOperatingHours = errors.New("営業時間は HH:MM 形式で指定してください")
)
