package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/norskgolf/internal/model"
)

// PostgresRoundRepo はPostgreSQLを使用したラウンドリポジトリ。
type PostgresRoundRepo struct {
	db DBTX
}

// NewPostgresRoundRepo はPostgresRoundRepoを生成する。
func NewPostgresRoundRepo(db DBTX) *PostgresRoundRepo {
	return &PostgresRoundRepo{db: db}
}

// Create はラウンドを作成し、採番されたIDをround.IDに設定する。
func (r *PostgresRoundRepo) Create(ctx context.Context, round *model.Round) error {
	var stableford sql.NullInt64
	if round.Stableford != nil {
		stableford = sql.NullInt64{Int64: int64(*round.Stableford), Valid: true}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO rounds (user_id, course_id, date, score, stableford)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		round.UserID, round.CourseID, round.Date, round.Score, stableford,
	).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("ラウンドの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのラウンドを取得する。見つからない場合はnilを返す。
func (r *PostgresRoundRepo) FindByID(ctx context.Context, id int64) (*model.Round, error) {
	round := &model.Round{}
	var stableford sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, course_id, date, score, stableford, created_at
		 FROM rounds WHERE id = $1`,
		id,
	).Scan(&round.ID, &round.UserID, &round.CourseID, &round.Date, &round.Score, &stableford, &round.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ラウンドの取得に失敗しました: %w", err)
	}
	if stableford.Valid {
		v := int(stableford.Int64)
		round.Stableford = &v
	}
	return round, nil
}

// Delete は指定IDのラウンドを削除する。
func (r *PostgresRoundRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM rounds WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ラウンドの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ラウンドが見つかりません: %d", id)
	}
	return nil
}

// FindByUser はユーザーのラウンドをコース名付きで取得する。
// 日付の降順、同日の場合はIDの降順で並ぶ。
func (r *PostgresRoundRepo) FindByUser(ctx context.Context, userID int64) ([]*model.RoundWithCourse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.course_id, r.date, r.score, r.created_at, c.name
		 FROM rounds r
		 INNER JOIN courses c ON c.id = r.course_id
		 WHERE r.user_id = $1
		 ORDER BY r.date DESC, r.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ラウンド一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var rounds []*model.RoundWithCourse
	for rows.Next() {
		rw := &model.RoundWithCourse{}
		if err := rows.Scan(&rw.ID, &rw.UserID, &rw.CourseID, &rw.Date, &rw.Score, &rw.CreatedAt, &rw.CourseName); err != nil {
			return nil, fmt.Errorf("ラウンド行の読み取りに失敗しました: %w", err)
		}
		rounds = append(rounds, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ラウンド一覧の走査に失敗しました: %w", err)
	}
	return rounds, nil
}

// ExistsByUserAndCourse はユーザーが指定コースのラウンドを持つかを返す。
func (r *PostgresRoundRepo) ExistsByUserAndCourse(ctx context.Context, userID, courseID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM rounds WHERE user_id = $1 AND course_id = $2)`,
		userID, courseID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ラウンドの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// CountByUser はユーザーのラウンド数を返す。
func (r *PostgresRoundRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rounds WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ラウンド数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ RoundRepository = (*PostgresRoundRepo)(nil)
