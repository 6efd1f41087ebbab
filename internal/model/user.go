// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// User はサービス利用ユーザーを表す。
// ユーザー情報は外部の認証基盤が管理し、本サービスからは参照のみ行う。
type User struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Avatar    string
	CreatedAt time.Time
}

// FullName は姓名を連結した氏名を返す。どちらも未設定なら空文字を返す。
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// DisplayName は画面に表示するユーザー名を解決する。
//
// 優先順位:
//  1. "@" を含まない空でないユーザー名
//  2. 空でない氏名
//  3. メールアドレス
func (u *User) DisplayName() string {
	if u.Username != "" && !strings.Contains(u.Username, "@") {
		return u.Username
	}
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

// Session はユーザーのログインセッションを表す。
// セッションの発行は認証基盤が行い、本サービスは検証のみ行う。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
