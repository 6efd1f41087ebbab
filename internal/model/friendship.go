package model

import "time"

// FriendshipStatus はフレンド関係の状態を表す。
type FriendshipStatus string

const (
	// FriendshipPending は承認待ちの状態。
	FriendshipPending FriendshipStatus = "PENDING"
	// FriendshipAccepted は承認済みの状態。
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
)

// Friendship はユーザー間のフレンド関係を表す。
// 順序を問わないユーザーの組につき最大1件。
type Friendship struct {
	ID          int64
	RequesterID int64
	ReceiverID  int64
	Status      FriendshipStatus
	CreatedAt   time.Time
}

// OtherParty は指定ユーザーから見た相手のユーザーIDを返す。
func (f *Friendship) OtherParty(userID int64) int64 {
	if f.RequesterID == userID {
		return f.ReceiverID
	}
	return f.RequesterID
}

// Involves は指定ユーザーが関係の当事者かを判定する。
func (f *Friendship) Involves(userID int64) bool {
	return f.RequesterID == userID || f.ReceiverID == userID
}
