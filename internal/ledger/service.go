// Package ledger はラウンド記録とプレー済みコース台帳の同期を提供する。
//
// ユーザーとコースの組について「プレー済み記録がある」ことと「ラウンドが1件以上ある、
// または手動でプレー済みにした」ことを一致させる。記録と削除はそれぞれ
// 1つのトランザクションで実行する。
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/norskgolf/internal/metrics"
	"github.com/hitoshi/norskgolf/internal/model"
	"github.com/hitoshi/norskgolf/internal/repository"
)

// RoundInput はラウンド記録の入力値。
type RoundInput struct {
	CourseID int64
	Date     time.Time
	Score    int
}

// Service はプレー記録のサービス層。
type Service struct {
	userRepo   repository.UserRepository
	courseRepo repository.CourseRepository
	playedRepo repository.PlayedCourseRepository
	roundRepo  repository.RoundRepository
	tx         repository.Transactor
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	playedRepo repository.PlayedCourseRepository,
	roundRepo repository.RoundRepository,
	tx repository.Transactor,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepo:   userRepo,
		courseRepo: courseRepo,
		playedRepo: playedRepo,
		roundRepo:  roundRepo,
		tx:         tx,
		metrics:    collector,
		logger:     logger,
	}
}

// LogRound はラウンドを記録し、未記録であればプレー済みコースを作成する。
// 2つの書き込みは同一トランザクションで実行される。
func (s *Service) LogRound(ctx context.Context, userID int64, in RoundInput) (*model.RoundSummary, error) {
	if in.Score <= 0 {
		return nil, model.NewInvalidRoundError("スコアは1以上である必要があります")
	}
	if in.Date.IsZero() {
		return nil, model.NewInvalidRoundError("日付が指定されていません")
	}

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	course, err := s.courseRepo.FindByID(ctx, in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("コースの取得に失敗しました: %w", err)
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(strconv.FormatInt(in.CourseID, 10))
	}

	round := &model.Round{
		UserID:   userID,
		CourseID: course.ID,
		Date:     civilDate(in.Date),
		Score:    in.Score,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, stores repository.LedgerStores) error {
		if err := stores.Rounds.Create(ctx, round); err != nil {
			return fmt.Errorf("ラウンドの作成に失敗しました: %w", err)
		}
		return s.ensurePlayed(ctx, stores.PlayedCourses, userID, course.ID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRoundLogged()
	s.logger.Info("round logged",
		slog.Int64("user_id", userID),
		slog.Int64("course_id", course.ID),
		slog.Int64("round_id", round.ID),
	)

	return &model.RoundSummary{
		ID:         round.ID,
		CourseID:   course.ID,
		CourseName: course.Name,
		Date:       round.Date,
		Score:      round.Score,
	}, nil
}

// DeleteRound はラウンドを削除し、同じコースのラウンドが残っていなければプレー済み記録も削除する。
// 他ユーザーのラウンドは削除できない。
func (s *Service) DeleteRound(ctx context.Context, userID, roundID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores repository.LedgerStores) error {
		round, err := stores.Rounds.FindByID(ctx, roundID)
		if err != nil {
			return fmt.Errorf("ラウンドの取得に失敗しました: %w", err)
		}
		if round == nil {
			return model.NewRoundNotFoundError(roundID)
		}
		if round.UserID != userID {
			return model.NewForbiddenError("他のユーザーのラウンドは削除できません")
		}

		if err := stores.Rounds.Delete(ctx, roundID); err != nil {
			return fmt.Errorf("ラウンドの削除に失敗しました: %w", err)
		}

		remaining, err := stores.Rounds.ExistsByUserAndCourse(ctx, userID, round.CourseID)
		if err != nil {
			return fmt.Errorf("残りラウンドの確認に失敗しました: %w", err)
		}
		if remaining {
			return nil
		}
		if err := stores.PlayedCourses.Delete(ctx, userID, round.CourseID); err != nil {
			return fmt.Errorf("プレー済み記録の削除に失敗しました: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordRoundDeleted()
	s.logger.Info("round deleted",
		slog.Int64("user_id", userID),
		slog.Int64("round_id", roundID),
	)
	return nil
}

// MarkPlayed はラウンドを記録せずにコースをプレー済みにする。既に記録済みでも成功する。
// 更新後のプレー済みコース一覧を返す。
func (s *Service) MarkPlayed(ctx context.Context, actorID, userID int64, courseExternalID string) ([]model.CourseView, error) {
	if actorID != userID {
		return nil, model.NewForbiddenError("他のユーザーのプレー記録は変更できません")
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	course, err := s.courseRepo.FindByExternalID(ctx, courseExternalID)
	if err != nil {
		return nil, fmt.Errorf("コースの取得に失敗しました: %w", err)
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(courseExternalID)
	}

	if err := s.ensurePlayed(ctx, s.playedRepo, userID, course.ID); err != nil {
		return nil, err
	}

	return s.ListPlayedCourses(ctx, userID)
}

// ListPlayedCourses はユーザーのプレー済みコース一覧を返す。
func (s *Service) ListPlayedCourses(ctx context.Context, userID int64) ([]model.CourseView, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	courses, err := s.courseRepo.FindPlayedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プレー済みコースの取得に失敗しました: %w", err)
	}

	views := make([]model.CourseView, len(courses))
	for i, c := range courses {
		views[i] = model.NewCourseView(c, true)
	}
	return views, nil
}

// ListCourses は全コースを呼び出しユーザーのプレー済みフラグ付きで返す。
func (s *Service) ListCourses(ctx context.Context, userID int64) ([]model.CourseView, error) {
	courses, err := s.courseRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("コース一覧の取得に失敗しました: %w", err)
	}
	played, err := PlayedCourseIDs(ctx, s.playedRepo, userID)
	if err != nil {
		return nil, err
	}

	views := make([]model.CourseView, len(courses))
	for i, c := range courses {
		_, ok := played[c.ID]
		views[i] = model.NewCourseView(c, ok)
	}
	return views, nil
}

// ListRounds はユーザーの全ラウンドを日付の降順で返す。
func (s *Service) ListRounds(ctx context.Context, userID int64) ([]model.RoundSummary, error) {
	rounds, err := s.roundRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ラウンド一覧の取得に失敗しました: %w", err)
	}

	summaries := make([]model.RoundSummary, len(rounds))
	for i, r := range rounds {
		summaries[i] = r.Summary()
	}
	return summaries, nil
}

// PlayedCourseIDs はユーザーのプレー済みコースIDの集合を返す。
func PlayedCourseIDs(ctx context.Context, repo repository.PlayedCourseRepository, userID int64) (map[int64]struct{}, error) {
	played, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プレー済みコースの取得に失敗しました: %w", err)
	}
	ids := make(map[int64]struct{}, len(played))
	for _, pc := range played {
		ids[pc.CourseID] = struct{}{}
	}
	return ids, nil
}

// ensurePlayed はプレー済み記録が無ければ作成する。
// 同時実行で先に作成された場合の一意制約違反は成功として扱う。
func (s *Service) ensurePlayed(ctx context.Context, repo repository.PlayedCourseRepository, userID, courseID int64) error {
	exists, err := repo.Exists(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("プレー済み記録の確認に失敗しました: %w", err)
	}
	if exists {
		return nil
	}

	created, err := repo.Create(ctx, userID, courseID)
	if errors.Is(err, repository.ErrDuplicate) {
		created = false
		err = nil
	}
	if err != nil {
		return fmt.Errorf("プレー済み記録の作成に失敗しました: %w", err)
	}
	if !created {
		s.metrics.RecordDuplicateSuppressed("played_course")
		s.logger.Debug("played course already recorded by concurrent request",
			slog.Int64("user_id", userID),
			slog.Int64("course_id", courseID),
		)
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, userID int64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	return nil
}

// civilDate は時刻を切り捨てたUTCの日付を返す。
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
