// Package progress はユーザーのコース制覇状況を集計する。
package progress

import (
	"context"
	"fmt"
	"sort"

	"github.com/hitoshi/norskgolf/internal/ledger"
	"github.com/hitoshi/norskgolf/internal/model"
	"github.com/hitoshi/norskgolf/internal/repository"
)

// RecentRoundsLimit は概要に含める最近のラウンド数の上限。
const RecentRoundsLimit = 5

// RegionStats は地域ごとの制覇状況。
type RegionStats struct {
	PlayedCount int
	TotalCount  int
	Percentage  float64
	Courses     []model.CourseView // プレー済みを先頭に、次に名前順
}

// Stats はユーザーの制覇状況の概要。
type Stats struct {
	TotalPlayed        int
	TotalCourses       int
	PercentageComplete float64
	RegionStats        map[string]*RegionStats
	RecentRounds       []model.RoundSummary
	DisplayName        string
	Avatar             string
	Email              string
}

// Service は制覇状況の集計サービス。
type Service struct {
	userRepo   repository.UserRepository
	courseRepo repository.CourseRepository
	playedRepo repository.PlayedCourseRepository
	roundRepo  repository.RoundRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	playedRepo repository.PlayedCourseRepository,
	roundRepo repository.RoundRepository,
) *Service {
	return &Service{
		userRepo:   userRepo,
		courseRepo: courseRepo,
		playedRepo: playedRepo,
		roundRepo:  roundRepo,
	}
}

// Overview はユーザーの全体と地域別の制覇率、最近のラウンドを集計する。
// 地域未設定のコースは "Unknown" 地域として全体の母数にも含める。
func (s *Service) Overview(ctx context.Context, userID int64) (*Stats, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	courses, err := s.courseRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("コース一覧の取得に失敗しました: %w", err)
	}
	played, err := ledger.PlayedCourseIDs(ctx, s.playedRepo, userID)
	if err != nil {
		return nil, err
	}
	rounds, err := s.roundRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ラウンド一覧の取得に失敗しました: %w", err)
	}

	stats := &Stats{
		TotalCourses: len(courses),
		RegionStats:  make(map[string]*RegionStats),
		RecentRounds: recentRounds(rounds, RecentRoundsLimit),
		DisplayName:  user.DisplayName(),
		Avatar:       user.Avatar,
		Email:        user.Email,
	}

	for _, c := range courses {
		_, isPlayed := played[c.ID]
		view := model.NewCourseView(c, isPlayed)

		rs, ok := stats.RegionStats[view.Region]
		if !ok {
			rs = &RegionStats{}
			stats.RegionStats[view.Region] = rs
		}
		rs.TotalCount++
		rs.Courses = append(rs.Courses, view)
		if isPlayed {
			rs.PlayedCount++
			stats.TotalPlayed++
		}
	}

	for _, rs := range stats.RegionStats {
		rs.Percentage = Percentage(rs.PlayedCount, rs.TotalCount)
		sortCourses(rs.Courses)
	}
	stats.PercentageComplete = Percentage(stats.TotalPlayed, stats.TotalCourses)

	return stats, nil
}

// Percentage はplayed/total*100を返す。totalが0の場合は0を返す。
func Percentage(played, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(played) / float64(total) * 100
}

// recentRounds は日付の降順、同日はIDの降順で先頭limit件の要約を返す。
func recentRounds(rounds []*model.RoundWithCourse, limit int) []model.RoundSummary {
	rounds = append([]*model.RoundWithCourse(nil), rounds...)
	sort.SliceStable(rounds, func(i, j int) bool {
		if !rounds[i].Date.Equal(rounds[j].Date) {
			return rounds[i].Date.After(rounds[j].Date)
		}
		return rounds[i].ID > rounds[j].ID
	})
	if len(rounds) > limit {
		rounds = rounds[:limit]
	}
	summaries := make([]model.RoundSummary, len(rounds))
	for i, r := range rounds {
		summaries[i] = r.Summary()
	}
	return summaries
}

func sortCourses(views []model.CourseView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Played != views[j].Played {
			return views[i].Played
		}
		return views[i].Name < views[j].Name
	})
}
