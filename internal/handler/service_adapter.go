package handler

import (
	"context"
	"time"

	"github.com/hitoshi/norskgolf/internal/ledger"
	"github.com/hitoshi/norskgolf/internal/model"
	"github.com/hitoshi/norskgolf/internal/progress"
	"github.com/hitoshi/norskgolf/internal/social"
)

// LedgerServiceAdapter は ledger.Service を CourseServiceInterface と RoundServiceInterface に適合させるアダプタ。
type LedgerServiceAdapter struct {
	svc *ledger.Service
}

// NewLedgerServiceAdapter はLedgerServiceAdapterを生成する。
func NewLedgerServiceAdapter(svc *ledger.Service) *LedgerServiceAdapter {
	return &LedgerServiceAdapter{svc: svc}
}

// ListCourses は全コースをhandlerレスポンス型で返す。
func (a *LedgerServiceAdapter) ListCourses(ctx context.Context, userID int64) ([]courseResponse, error) {
	views, err := a.svc.ListCourses(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toCourseResponses(views), nil
}

// ListPlayedCourses はプレー済みコースをhandlerレスポンス型で返す。
func (a *LedgerServiceAdapter) ListPlayedCourses(ctx context.Context, userID int64) ([]courseResponse, error) {
	views, err := a.svc.ListPlayedCourses(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toCourseResponses(views), nil
}

// MarkPlayed はコースをプレー済みにし、更新後のプレー済みコースを返す。
func (a *LedgerServiceAdapter) MarkPlayed(ctx context.Context, actorID, userID int64, courseExternalID string) ([]courseResponse, error) {
	views, err := a.svc.MarkPlayed(ctx, actorID, userID, courseExternalID)
	if err != nil {
		return nil, err
	}
	return toCourseResponses(views), nil
}

// LogRound はラウンドを記録しhandlerレスポンス型で返す。
func (a *LedgerServiceAdapter) LogRound(ctx context.Context, userID, courseID int64, date time.Time, score int) (*roundResponse, error) {
	summary, err := a.svc.LogRound(ctx, userID, ledger.RoundInput{
		CourseID: courseID,
		Date:     date,
		Score:    score,
	})
	if err != nil {
		return nil, err
	}
	resp := toRoundResponse(*summary)
	return &resp, nil
}

// ListRounds はラウンド一覧をhandlerレスポンス型で返す。
func (a *LedgerServiceAdapter) ListRounds(ctx context.Context, userID int64) ([]roundResponse, error) {
	summaries, err := a.svc.ListRounds(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toRoundResponses(summaries), nil
}

// DeleteRound はラウンドを削除する。
func (a *LedgerServiceAdapter) DeleteRound(ctx context.Context, userID, roundID int64) error {
	return a.svc.DeleteRound(ctx, userID, roundID)
}

// ProgressServiceAdapter は progress.Service を OverviewServiceInterface に適合させるアダプタ。
type ProgressServiceAdapter struct {
	svc *progress.Service
}

// NewProgressServiceAdapter はProgressServiceAdapterを生成する。
func NewProgressServiceAdapter(svc *progress.Service) *ProgressServiceAdapter {
	return &ProgressServiceAdapter{svc: svc}
}

// Overview は制覇状況をhandlerレスポンス型で返す。
func (a *ProgressServiceAdapter) Overview(ctx context.Context, userID int64) (*overviewResponse, error) {
	stats, err := a.svc.Overview(ctx, userID)
	if err != nil {
		return nil, err
	}

	regions := make(map[string]regionStatsResponse, len(stats.RegionStats))
	for name, rs := range stats.RegionStats {
		regions[name] = regionStatsResponse{
			PlayedCount: rs.PlayedCount,
			TotalCount:  rs.TotalCount,
			Percentage:  rs.Percentage,
			Courses:     toCourseResponses(rs.Courses),
		}
	}

	return &overviewResponse{
		TotalPlayed:        stats.TotalPlayed,
		TotalCourses:       stats.TotalCourses,
		PercentageComplete: stats.PercentageComplete,
		RegionStats:        regions,
		RecentRounds:       toRoundResponses(stats.RecentRounds),
		DisplayName:        stats.DisplayName,
		Avatar:             stats.Avatar,
		Email:              stats.Email,
	}, nil
}

// SocialServiceAdapter は social.Service を FriendServiceInterface に適合させるアダプタ。
type SocialServiceAdapter struct {
	svc *social.Service
}

// NewSocialServiceAdapter はSocialServiceAdapterを生成する。
func NewSocialServiceAdapter(svc *social.Service) *SocialServiceAdapter {
	return &SocialServiceAdapter{svc: svc}
}

// Leaderboard はリーダーボードをhandlerレスポンス型で返す。
func (a *SocialServiceAdapter) Leaderboard(ctx context.Context, userID int64) ([]friendEntryResponse, error) {
	entries, err := a.svc.Leaderboard(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]friendEntryResponse, len(entries))
	for i, e := range entries {
		results[i] = friendEntryResponse{
			ID:           e.ID,
			DisplayName:  e.DisplayName,
			Status:       e.Status,
			FriendshipID: e.FriendshipID,
			TotalCourses: e.TotalCourses,
			TotalRounds:  e.TotalRounds,
			Avatar:       e.Avatar,
		}
	}
	return results, nil
}

// PendingRequests は承認待ち申請をhandlerレスポンス型で返す。
func (a *SocialServiceAdapter) PendingRequests(ctx context.Context, userID int64) ([]friendRequestResponse, error) {
	requests, err := a.svc.PendingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]friendRequestResponse, len(requests))
	for i, req := range requests {
		results[i] = friendRequestResponse{
			FriendID:     req.FriendID,
			DisplayName:  req.DisplayName,
			Status:       req.Status,
			FriendshipID: req.FriendshipID,
		}
	}
	return results, nil
}

// SendRequest はフレンド申請を送信する。
func (a *SocialServiceAdapter) SendRequest(ctx context.Context, senderID, receiverID int64) error {
	return a.svc.SendRequest(ctx, senderID, receiverID)
}

// Respond はフレンド申請に応答する。
func (a *SocialServiceAdapter) Respond(ctx context.Context, userID, friendshipID int64, action string) error {
	return a.svc.Respond(ctx, userID, friendshipID, action)
}

// Search はユーザー検索結果をhandlerレスポンス型で返す。
func (a *SocialServiceAdapter) Search(ctx context.Context, userID int64, query string) ([]searchResultResponse, error) {
	found, err := a.svc.Search(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	results := make([]searchResultResponse, len(found))
	for i, f := range found {
		results[i] = searchResultResponse{
			ID:          f.ID,
			DisplayName: f.DisplayName,
			Status:      f.Status,
		}
	}
	return results, nil
}

// toCourseResponses はドメインのCourseViewをhandlerのレスポンス型に変換する。
// 空の場合もnullではなく空配列として返す。
func toCourseResponses(views []model.CourseView) []courseResponse {
	results := make([]courseResponse, len(views))
	for i, v := range views {
		results[i] = courseResponse{
			ID:         v.ID,
			Name:       v.Name,
			Latitude:   v.Latitude,
			Longitude:  v.Longitude,
			ExternalID: v.ExternalID,
			Region:     v.Region,
			Played:     v.Played,
		}
	}
	return results
}

// toRoundResponse はドメインのRoundSummaryをhandlerのレスポンス型に変換する。
func toRoundResponse(s model.RoundSummary) roundResponse {
	return roundResponse{
		ID:         s.ID,
		CourseID:   s.CourseID,
		CourseName: s.CourseName,
		Date:       s.Date.Format(model.DateLayout),
		Score:      s.Score,
	}
}

func toRoundResponses(summaries []model.RoundSummary) []roundResponse {
	results := make([]roundResponse, len(summaries))
	for i, s := range summaries {
		results[i] = toRoundResponse(s)
	}
	return results
}

// compile-time interface check
var (
	_ CourseServiceInterface   = (*LedgerServiceAdapter)(nil)
	_ RoundServiceInterface    = (*LedgerServiceAdapter)(nil)
	_ OverviewServiceInterface = (*ProgressServiceAdapter)(nil)
	_ FriendServiceInterface   = (*SocialServiceAdapter)(nil)
)
