package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/norskgolf/internal/model"
)

const friendshipColumns = `id, requester_id, receiver_id, status, created_at`

// PostgresFriendshipRepo はPostgreSQLを使用したフレンド関係リポジトリ。
type PostgresFriendshipRepo struct {
	db DBTX
}

// NewPostgresFriendshipRepo はPostgresFriendshipRepoを生成する。
func NewPostgresFriendshipRepo(db DBTX) *PostgresFriendshipRepo {
	return &PostgresFriendshipRepo{db: db}
}

func scanFriendship(s rowScanner) (*model.Friendship, error) {
	f := &model.Friendship{}
	var status string
	if err := s.Scan(&f.ID, &f.RequesterID, &f.ReceiverID, &status, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Status = model.FriendshipStatus(status)
	return f, nil
}

// FindByID は指定IDのフレンド関係を取得する。見つからない場合はnilを返す。
func (r *PostgresFriendshipRepo) FindByID(ctx context.Context, id int64) (*model.Friendship, error) {
	f, err := scanFriendship(r.db.QueryRowContext(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("フレンド関係の取得に失敗しました: %w", err)
	}
	return f, nil
}

// FindRelationship は2ユーザー間のフレンド関係を向きを問わず取得する。
func (r *PostgresFriendshipRepo) FindRelationship(ctx context.Context, userA, userB int64) (*model.Friendship, error) {
	f, err := scanFriendship(r.db.QueryRowContext(ctx,
		`SELECT `+friendshipColumns+` FROM friendships
		 WHERE (requester_id = $1 AND receiver_id = $2)
		    OR (requester_id = $2 AND receiver_id = $1)`,
		userA, userB,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("フレンド関係の検索に失敗しました: %w", err)
	}
	return f, nil
}

// FindAllAccepted はユーザーが当事者である承認済みのフレンド関係を取得する。
func (r *PostgresFriendshipRepo) FindAllAccepted(ctx context.Context, userID int64) ([]*model.Friendship, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+friendshipColumns+` FROM friendships
		 WHERE status = $2 AND (requester_id = $1 OR receiver_id = $1)
		 ORDER BY id ASC`,
		userID, string(model.FriendshipAccepted),
	)
	if err != nil {
		return nil, fmt.Errorf("フレンド一覧の取得に失敗しました: %w", err)
	}
	return collectFriendships(rows)
}

// FindPending はユーザーが受信者である承認待ちのフレンド関係を取得する。
func (r *PostgresFriendshipRepo) FindPending(ctx context.Context, receiverID int64) ([]*model.Friendship, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+friendshipColumns+` FROM friendships
		 WHERE receiver_id = $1 AND status = $2
		 ORDER BY created_at ASC, id ASC`,
		receiverID, string(model.FriendshipPending),
	)
	if err != nil {
		return nil, fmt.Errorf("フレンド申請一覧の取得に失敗しました: %w", err)
	}
	return collectFriendships(rows)
}

// Create はフレンド関係を作成する。既に関係が存在する場合はErrDuplicateを返す。
func (r *PostgresFriendshipRepo) Create(ctx context.Context, f *model.Friendship) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO friendships (requester_id, receiver_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		f.RequesterID, f.ReceiverID, string(f.Status),
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("フレンド関係の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus はフレンド関係の状態を更新する。
func (r *PostgresFriendshipRepo) UpdateStatus(ctx context.Context, id int64, status model.FriendshipStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE friendships SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("フレンド関係の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("フレンド関係が見つかりません: %d", id)
	}
	return nil
}

// Delete は指定IDのフレンド関係を削除する。
func (r *PostgresFriendshipRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM friendships WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("フレンド関係の削除に失敗しました: %w", err)
	}
	return nil
}

func collectFriendships(rows *sql.Rows) ([]*model.Friendship, error) {
	defer rows.Close()

	var friendships []*model.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("フレンド関係行の読み取りに失敗しました: %w", err)
		}
		friendships = append(friendships, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フレンド関係一覧の走査に失敗しました: %w", err)
	}
	return friendships, nil
}

// compile-time interface check
var _ FriendshipRepository = (*PostgresFriendshipRepo)(nil)
