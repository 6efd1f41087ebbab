package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/norskgolf/internal/model"
)

// PostgresPlayedCourseRepo はPostgreSQLを使用したプレー済みコースリポジトリ。
type PostgresPlayedCourseRepo struct {
	db DBTX
}

// NewPostgresPlayedCourseRepo はPostgresPlayedCourseRepoを生成する。
func NewPostgresPlayedCourseRepo(db DBTX) *PostgresPlayedCourseRepo {
	return &PostgresPlayedCourseRepo{db: db}
}

// Exists はユーザーがコースをプレー済みとして記録しているかを返す。
func (r *PostgresPlayedCourseRepo) Exists(ctx context.Context, userID, courseID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM played_courses WHERE user_id = $1 AND course_id = $2)`,
		userID, courseID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("プレー済みコースの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はプレー済みコースを記録する。
// ON CONFLICT DO NOTHINGにより、既に記録済みの場合はcreated=falseを返す。
func (r *PostgresPlayedCourseRepo) Create(ctx context.Context, userID, courseID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO played_courses (user_id, course_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicate
		}
		return false, fmt.Errorf("プレー済みコースの記録に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("作成結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete はプレー済みコースの記録を削除する。記録が無くてもエラーにしない。
func (r *PostgresPlayedCourseRepo) Delete(ctx context.Context, userID, courseID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM played_courses WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	)
	if err != nil {
		return fmt.Errorf("プレー済みコースの削除に失敗しました: %w", err)
	}
	return nil
}

// FindByUser はユーザーのプレー済みコース記録を全件取得する。
func (r *PostgresPlayedCourseRepo) FindByUser(ctx context.Context, userID int64) ([]*model.PlayedCourse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, course_id, best_score, last_played, created_at
		 FROM played_courses WHERE user_id = $1 ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("プレー済みコース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var played []*model.PlayedCourse
	for rows.Next() {
		pc := &model.PlayedCourse{}
		var bestScore sql.NullInt64
		var lastPlayed sql.NullTime
		if err := rows.Scan(&pc.ID, &pc.UserID, &pc.CourseID, &bestScore, &lastPlayed, &pc.CreatedAt); err != nil {
			return nil, fmt.Errorf("プレー済みコース行の読み取りに失敗しました: %w", err)
		}
		if bestScore.Valid {
			v := int(bestScore.Int64)
			pc.BestScore = &v
		}
		if lastPlayed.Valid {
			v := lastPlayed.Time
			pc.LastPlayed = &v
		}
		played = append(played, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プレー済みコース一覧の走査に失敗しました: %w", err)
	}
	return played, nil
}

// CountByUser はユーザーのプレー済みコース数を返す。
func (r *PostgresPlayedCourseRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM played_courses WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("プレー済みコース数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ PlayedCourseRepository = (*PostgresPlayedCourseRepo)(nil)
