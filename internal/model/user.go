// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthToken はAPIアクセス用の認証トークンを表す。
// Authorization: Token <key> ヘッダーで提示される。
type AuthToken struct {
	Key       string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Follow はユーザーによる投稿者のフォロー（購読）関係を表す。
// (SubscriberID, AuthorID) は一意で、自分自身はフォローできない。
type Follow struct {
	ID           string
	SubscriberID string
	AuthorID     string
	CreatedAt    time.Time
}
