package identity

// Role は呼び出し元ユーザーのロールを表す
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RolePlayer  Role = "player"
)

// ParseRole はロール文字列を解析する。空文字は player として扱う
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RolePlayer:
		return Role(s), nil
	case "":
		return RolePlayer, nil
	}
	return "", ErrUnknownRole
}

// Principal は認証済みの呼び出し元を表す
// 外部の認証基盤が解決した結果を受け取るだけで、この層では検証しない
// すべてのサービス呼び出しに明示的に引き渡す（グローバルな認証コンテキストは持たない）
type Principal struct {
	UserID string
	Role   Role
}

// Validate はプリンシパルの検証を行う
func (p Principal) Validate() error {
	if p.UserID == "" {
		return ErrPrincipalRequired
	}
	switch p.Role {
	case RoleAdmin, RoleManager, RolePlayer:
		return nil
	}
	return ErrUnknownRole
}

// IsAdmin は管理者かを返す
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsManager はスタジアム管理者かを返す
func (p Principal) IsManager() bool {
	return p.Role == RoleManager
}

// IsPlayer は一般ユーザーかを返す
func (p Principal) IsPlayer() bool {
	return p.Role == RolePlayer
}
