// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hitoshi/norskgolf/internal/model"
)

// ErrDuplicate は一意制約違反により作成がスキップされたことを表す。
// 呼び出し側は冪等な再試行として成功扱いにする。
var ErrDuplicate = errors.New("repository: duplicate key")

// DBTX はSQL実行を抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// CourseRepository はコースデータの永続化インターフェース。
type CourseRepository interface {
	// FindAll は全コースを名前順で取得する。
	FindAll(ctx context.Context) ([]*model.Course, error)

	// FindByID は指定IDのコースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Course, error)

	// FindByExternalID は外部IDでコースを検索する。見つからない場合はnilを返す。
	FindByExternalID(ctx context.Context, externalID string) (*model.Course, error)

	// FindPlayedByUser はユーザーがプレー済みのコースを名前順で取得する。
	FindPlayedByUser(ctx context.Context, userID int64) ([]*model.Course, error)

	// Upsert はコースを保存する。
	// 外部IDを持つ場合は既存行の名前・座標・地域を更新し、持たない場合は新規作成する。
	// 保存後のIDをcourse.IDに設定する。
	Upsert(ctx context.Context, course *model.Course) error

	// Count は登録済みコース数を返す。
	Count(ctx context.Context) (int, error)
}

// PlayedCourseRepository はプレー済みコース台帳の永続化インターフェース。
type PlayedCourseRepository interface {
	// Exists はユーザーがコースをプレー済みとして記録しているかを返す。
	Exists(ctx context.Context, userID, courseID int64) (bool, error)

	// Create はプレー済みコースを記録する。
	// 既に記録済みの場合は何もせずcreated=falseを返す。
	Create(ctx context.Context, userID, courseID int64) (created bool, err error)

	// Delete はプレー済みコースの記録を削除する。記録が無くてもエラーにしない。
	Delete(ctx context.Context, userID, courseID int64) error

	// FindByUser はユーザーのプレー済みコース記録を全件取得する。
	FindByUser(ctx context.Context, userID int64) ([]*model.PlayedCourse, error)

	// CountByUser はユーザーのプレー済みコース数を返す。
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// RoundRepository はラウンドデータの永続化インターフェース。
type RoundRepository interface {
	// Create はラウンドを作成し、採番されたIDをround.IDに設定する。
	Create(ctx context.Context, round *model.Round) error

	// FindByID は指定IDのラウンドを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Round, error)

	// Delete は指定IDのラウンドを削除する。
	Delete(ctx context.Context, id int64) error

	// FindByUser はユーザーのラウンドをコース名付きで取得する。
	// 日付の降順、同日の場合はIDの降順で並ぶ。
	FindByUser(ctx context.Context, userID int64) ([]*model.RoundWithCourse, error)

	// ExistsByUserAndCourse はユーザーが指定コースのラウンドを持つかを返す。
	ExistsByUserAndCourse(ctx context.Context, userID, courseID int64) (bool, error)

	// CountByUser はユーザーのラウンド数を返す。
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// FriendshipRepository はフレンド関係の永続化インターフェース。
type FriendshipRepository interface {
	// FindByID は指定IDのフレンド関係を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Friendship, error)

	// FindRelationship は2ユーザー間のフレンド関係を向きを問わず取得する。
	// 見つからない場合はnilを返す。
	FindRelationship(ctx context.Context, userA, userB int64) (*model.Friendship, error)

	// FindAllAccepted はユーザーが当事者である承認済みのフレンド関係を取得する。
	FindAllAccepted(ctx context.Context, userID int64) ([]*model.Friendship, error)

	// FindPending はユーザーが受信者である承認待ちのフレンド関係を取得する。
	FindPending(ctx context.Context, receiverID int64) ([]*model.Friendship, error)

	// Create はフレンド関係を作成する。既に関係が存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, friendship *model.Friendship) error

	// UpdateStatus はフレンド関係の状態を更新する。
	UpdateStatus(ctx context.Context, id int64, status model.FriendshipStatus) error

	// Delete は指定IDのフレンド関係を削除する。
	Delete(ctx context.Context, id int64) error
}

// UserRepository はユーザーデータの参照インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByIDs は指定IDのユーザーをIDをキーとしたマップで返す。
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)

	// FindByEmail はメールアドレスが完全一致するユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// SearchByUsername はユーザー名の部分一致（大文字小文字を区別しない）でユーザーを検索する。
	SearchByUsername(ctx context.Context, query string, limit int) ([]*model.User, error)
}

// SessionRepository はセッションデータの参照インターフェース。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// LedgerStores はトランザクションに束縛されたプレー記録用のリポジトリ群。
type LedgerStores struct {
	Courses       CourseRepository
	Rounds        RoundRepository
	PlayedCourses PlayedCourseRepository
}

// Transactor は複数の書き込みを1つのトランザクションで実行する。
type Transactor interface {
	// WithinTx はfnをトランザクション内で実行する。
	// fnがエラーを返した場合はロールバックし、そうでなければコミットする。
	WithinTx(ctx context.Context, fn func(ctx context.Context, stores LedgerStores) error) error
}
