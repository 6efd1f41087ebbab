package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/norskgolf/internal/model"
)

// mockOverviewService はOverviewServiceInterfaceのモック実装。
type mockOverviewService struct {
	overviewFn func(ctx context.Context, userID int64) (*overviewResponse, error)
}

func (m *mockOverviewService) Overview(ctx context.Context, userID int64) (*overviewResponse, error) {
	if m.overviewFn != nil {
		return m.overviewFn(ctx, userID)
	}
	return &overviewResponse{}, nil
}

func TestOverviewHandler_Overview_Success(t *testing.T) {
	svc := &mockOverviewService{
		overviewFn: func(ctx context.Context, userID int64) (*overviewResponse, error) {
			return &overviewResponse{
				TotalPlayed:        2,
				TotalCourses:       5,
				PercentageComplete: 40,
				RegionStats: map[string]regionStatsResponse{
					"Oslo": {PlayedCount: 1, TotalCount: 3, Percentage: 100.0 / 3, Courses: []courseResponse{{ID: 1, Name: "Bogstad", Region: "Oslo", Played: true}}},
				},
				RecentRounds: []roundResponse{{ID: 6, CourseID: 1, CourseName: "Bogstad", Date: "2024-06-20", Score: 88}},
				DisplayName:  "ola",
				Email:        "ola@example.no",
			}, nil
		},
	}
	h := NewOverviewHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/overview", nil), 1)
	w := httptest.NewRecorder()

	h.Overview(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"totalPlayed", "totalCourses", "percentageComplete", "regionStats", "recentRounds", "displayName", "avatar", "email"} {
		if _, ok := result[key]; !ok {
			t.Errorf("レスポンスに %s が含まれるべき", key)
		}
	}
	regions := result["regionStats"].(map[string]interface{})
	oslo := regions["Oslo"].(map[string]interface{})
	if int(oslo["totalCount"].(float64)) != 3 {
		t.Errorf("Oslo totalCount = %v, want 3", oslo["totalCount"])
	}
	if result["percentageComplete"].(float64) != 40 {
		t.Errorf("percentageComplete = %v, want 40", result["percentageComplete"])
	}
}

func TestOverviewHandler_Overview_UserNotFound(t *testing.T) {
	svc := &mockOverviewService{
		overviewFn: func(ctx context.Context, userID int64) (*overviewResponse, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewOverviewHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/overview", nil), 1)
	w := httptest.NewRecorder()

	h.Overview(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestOverviewHandler_Overview_Unauthorized(t *testing.T) {
	h := NewOverviewHandler(&mockOverviewService{})

	req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
	w := httptest.NewRecorder()

	h.Overview(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
