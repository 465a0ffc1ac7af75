package identity

// ListScope は予約一覧クエリの可視範囲を表す
// 空文字のフィールドは絞り込みなしを意味する
type ListScope struct {
	StadiumID string
	UserID    string
}

// ResolveListScope はロールとリクエストの絞り込み条件から一覧の可視範囲を解決する
//
//   - admin:   指定された条件をそのまま通す（全件参照可）
//   - manager: スタジアムIDの指定が必須。所有確認は呼び出し側がリポジトリで行う
//   - player:  自分の予約のみ。他ユーザーの指定は拒否する
func ResolveListScope(p Principal, stadiumID, userID string) (ListScope, error) {
	if err := p.Validate(); err != nil {
		return ListScope{}, err
	}

	if p.IsAdmin() {
		return ListScope{StadiumID: stadiumID, UserID: userID}, nil
	}

	if p.IsManager() {
		if stadiumID == "" {
			return ListScope{}, ErrStadiumFilterRequired
		}
		return ListScope{StadiumID: stadiumID, UserID: userID}, nil
	}

	if userID != "" && userID != p.UserID {
		return ListScope{}, ErrAccessDenied
	}
	return ListScope{StadiumID: stadiumID, UserID: p.UserID}, nil
}
