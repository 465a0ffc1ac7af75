package identity

import "errors"

// Identity ドメインのエラー定義
var (
	ErrPrincipalRequired     = errors.New("ユーザーIDが必要です")
	ErrUnknownRole           = errors.New("不明なロールです")
	ErrAccessDenied          = errors.New("この操作を行う権限がありません")
	ErrStadiumFilterRequired = errors.New("スタジアムIDを指定してください")
)
