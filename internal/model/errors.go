// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, course, round, friend, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeCourseNotFound     = "COURSE_NOT_FOUND"
	ErrCodeRoundNotFound      = "ROUND_NOT_FOUND"
	ErrCodeInvalidRound       = "INVALID_ROUND"
	ErrCodeFriendshipNotFound = "FRIENDSHIP_NOT_FOUND"
	ErrCodeInvalidAction      = "INVALID_ACTION"
	ErrCodeCannotAddSelf      = "CANNOT_ADD_SELF"
	ErrCodeRelationshipExists = "RELATIONSHIP_EXISTS"
)

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は他ユーザーのリソースを操作しようとした場合のエラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作は許可されていません: %s", reason),
		Category: "auth",
		Action:   "自分のデータのみ操作できます。",
	}
}

// NewInvalidRequestError はリクエスト形式が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しい形式でリクエストしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewCourseNotFoundError はコースが見つからない場合のエラーを生成する。
func NewCourseNotFoundError(courseRef string) *APIError {
	return &APIError{
		Code:     ErrCodeCourseNotFound,
		Message:  fmt.Sprintf("指定されたコースが見つかりません: %s", courseRef),
		Category: "course",
		Action:   "コース一覧からコースを選択してください。",
	}
}

// NewRoundNotFoundError はラウンドが見つからない場合のエラーを生成する。
func NewRoundNotFoundError(roundID int64) *APIError {
	return &APIError{
		Code:     ErrCodeRoundNotFound,
		Message:  fmt.Sprintf("指定されたラウンドが見つかりません: %d", roundID),
		Category: "round",
		Action:   "ラウンドIDを確認してください。",
	}
}

// NewInvalidRoundError はラウンドの入力値が不正な場合のエラーを生成する。
func NewInvalidRoundError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRound,
		Message:  fmt.Sprintf("ラウンドの入力内容が不正です: %s", reason),
		Category: "validation",
		Action:   "日付（YYYY-MM-DD）と1以上のスコアを指定してください。",
	}
}

// NewFriendshipNotFoundError はフレンド関係が見つからない場合のエラーを生成する。
func NewFriendshipNotFoundError(friendshipID int64) *APIError {
	return &APIError{
		Code:     ErrCodeFriendshipNotFound,
		Message:  fmt.Sprintf("指定されたフレンド申請が見つかりません: %d", friendshipID),
		Category: "friend",
		Action:   "申請一覧を再読み込みしてください。",
	}
}

// NewInvalidActionError はフレンド申請への応答種別が不正な場合のエラーを生成する。
func NewInvalidActionError(action string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAction,
		Message:  fmt.Sprintf("無効な操作です: %s", action),
		Category: "validation",
		Action:   "ACCEPT または REJECT を指定してください。",
	}
}

// NewCannotAddSelfError は自分自身にフレンド申請した場合のエラーを生成する。
func NewCannotAddSelfError() *APIError {
	return &APIError{
		Code:     ErrCodeCannotAddSelf,
		Message:  "自分自身をフレンドに追加することはできません。",
		Category: "friend",
		Action:   "他のユーザーを検索してください。",
	}
}

// NewRelationshipExistsError は既にフレンド関係または申請が存在する場合のエラーを生成する。
func NewRelationshipExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeRelationshipExists,
		Message:  "このユーザーとは既にフレンドか、申請が保留中です。",
		Category: "friend",
		Action:   "フレンド一覧または申請一覧を確認してください。",
	}
}
