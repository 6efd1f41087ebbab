package handler

import (
	"context"
	"net/http"
)

// OverviewServiceInterface は制覇状況ハンドラーが必要とするサービスインターフェース。
type OverviewServiceInterface interface {
	// Overview はユーザーの制覇状況を集計して返す。
	Overview(ctx context.Context, userID int64) (*overviewResponse, error)
}

// OverviewHandler は制覇状況のHTTPハンドラー。
type OverviewHandler struct {
	service OverviewServiceInterface
}

// NewOverviewHandler はOverviewHandlerを生成する。
func NewOverviewHandler(service OverviewServiceInterface) *OverviewHandler {
	return &OverviewHandler{service: service}
}

// regionStatsResponse は地域ごとの制覇状況のAPIレスポンス。
type regionStatsResponse struct {
	PlayedCount int              `json:"playedCount"`
	TotalCount  int              `json:"totalCount"`
	Percentage  float64          `json:"percentage"`
	Courses     []courseResponse `json:"courses"`
}

// overviewResponse は制覇状況のAPIレスポンス。
type overviewResponse struct {
	TotalPlayed        int                            `json:"totalPlayed"`
	TotalCourses       int                            `json:"totalCourses"`
	PercentageComplete float64                        `json:"percentageComplete"`
	RegionStats        map[string]regionStatsResponse `json:"regionStats"`
	RecentRounds       []roundResponse                `json:"recentRounds"`
	DisplayName        string                         `json:"displayName"`
	Avatar             string                         `json:"avatar"`
	Email              string                         `json:"email"`
}

// Overview はログインユーザーの制覇状況を取得する。
// GET /api/overview
func (h *OverviewHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Overview(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
