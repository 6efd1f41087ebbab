package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/norskgolf/internal/model"
)

const courseColumns = `id, external_id, name, latitude, longitude, region, created_at, updated_at`

// PostgresCourseRepo はPostgreSQLを使用したコースリポジトリ。
type PostgresCourseRepo struct {
	db DBTX
}

// NewPostgresCourseRepo はPostgresCourseRepoを生成する。
func NewPostgresCourseRepo(db DBTX) *PostgresCourseRepo {
	return &PostgresCourseRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(s rowScanner) (*model.Course, error) {
	c := &model.Course{}
	var externalID, region sql.NullString
	if err := s.Scan(&c.ID, &externalID, &c.Name, &c.Latitude, &c.Longitude, &region, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ExternalID = nullStringPtr(externalID)
	c.Region = nullStringPtr(region)
	return c, nil
}

// FindAll は全コースを名前順で取得する。
func (r *PostgresCourseRepo) FindAll(ctx context.Context) ([]*model.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY name ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("コース一覧の取得に失敗しました: %w", err)
	}
	return collectCourses(rows)
}

// FindByID は指定IDのコースを取得する。見つからない場合はnilを返す。
func (r *PostgresCourseRepo) FindByID(ctx context.Context, id int64) (*model.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コースの取得に失敗しました: %w", err)
	}
	return c, nil
}

// FindByExternalID は外部IDでコースを検索する。見つからない場合はnilを返す。
func (r *PostgresCourseRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE external_id = $1`,
		externalID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("外部IDによるコースの検索に失敗しました: %w", err)
	}
	return c, nil
}

// FindPlayedByUser はユーザーがプレー済みのコースを名前順で取得する。
func (r *PostgresCourseRepo) FindPlayedByUser(ctx context.Context, userID int64) ([]*model.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.external_id, c.name, c.latitude, c.longitude, c.region, c.created_at, c.updated_at
		 FROM courses c
		 INNER JOIN played_courses pc ON pc.course_id = c.id
		 WHERE pc.user_id = $1
		 ORDER BY c.name ASC, c.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("プレー済みコースの取得に失敗しました: %w", err)
	}
	return collectCourses(rows)
}

// Upsert はコースを保存する。
// external_idがNULLの行は一意制約で衝突しないため、外部IDの無いコースは常に新規作成となる。
func (r *PostgresCourseRepo) Upsert(ctx context.Context, course *model.Course) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO courses (external_id, name, latitude, longitude, region)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (external_id) DO UPDATE SET
		   name = EXCLUDED.name,
		   latitude = EXCLUDED.latitude,
		   longitude = EXCLUDED.longitude,
		   region = EXCLUDED.region,
		   updated_at = now()
		 RETURNING id, created_at, updated_at`,
		ptrToNullString(course.ExternalID), course.Name, course.Latitude, course.Longitude, ptrToNullString(course.Region),
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return fmt.Errorf("コースの保存に失敗しました: %w", err)
	}
	return nil
}

// Count は登録済みコース数を返す。
func (r *PostgresCourseRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("コース数の取得に失敗しました: %w", err)
	}
	return count, nil
}

func collectCourses(rows *sql.Rows) ([]*model.Course, error) {
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("コース行の読み取りに失敗しました: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コース一覧の走査に失敗しました: %w", err)
	}
	return courses, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrToNullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// compile-time interface check
var _ CourseRepository = (*PostgresCourseRepo)(nil)
