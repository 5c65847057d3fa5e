package model

import "time"

// Role はユーザーの権限を表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// Valid は定義済みの権限かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// User はサービス利用ユーザーを表す。
// OpenIDは外部ログイン基盤の識別子で、一意。
type User struct {
	ID           int64
	OpenID       string
	Name         string
	Email        string
	LoginMethod  string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSignedIn time.Time
}

// SignIn はログイン時に記録するユーザー情報。
// 空文字のフィールドは既存値を維持する。Roleが空の場合も同様。
type SignIn struct {
	OpenID      string
	Name        string
	Email       string
	LoginMethod string
	Role        Role
	At          time.Time
}
