package catalog

import (
	"context"
	"fmt"

	"github.com/hitoshi/norskgolf/internal/model"
	"github.com/hitoshi/norskgolf/internal/repository"
)

// Store は取り込み先のコースストア。
type Store interface {
	// Count は登録済みコース数を返す。
	Count(ctx context.Context) (int, error)
	// SaveAll はコースをまとめて保存する。途中で失敗した場合は何も保存しない。
	SaveAll(ctx context.Context, courses []*model.Course) error
}

// RepositoryStore はCourseRepositoryとTransactorを使用するStoreの実装。
type RepositoryStore struct {
	courses repository.CourseRepository
	tx      repository.Transactor
}

// NewRepositoryStore はRepositoryStoreを生成する。
func NewRepositoryStore(courses repository.CourseRepository, tx repository.Transactor) *RepositoryStore {
	return &RepositoryStore{courses: courses, tx: tx}
}

// Count は登録済みコース数を返す。
func (s *RepositoryStore) Count(ctx context.Context) (int, error) {
	return s.courses.Count(ctx)
}

// SaveAll はコースを1つのトランザクションで保存する。
func (s *RepositoryStore) SaveAll(ctx context.Context, courses []*model.Course) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, stores repository.LedgerStores) error {
		for _, c := range courses {
			if err := stores.Courses.Upsert(ctx, c); err != nil {
				return fmt.Errorf("コース %q の保存に失敗しました: %w", c.Name, err)
			}
		}
		return nil
	})
}

// compile-time interface check
var _ Store = (*RepositoryStore)(nil)
