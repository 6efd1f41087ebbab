package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/norskgolf/internal/middleware"
	"github.com/hitoshi/norskgolf/internal/model"
)

// mockSessionFinder はmiddleware.SessionFinderのモック実装。
type mockSessionFinder struct {
	sessions map[string]int64
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	userID, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &model.Session{ID: id, UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

// mockHealthChecker はHealthCheckerのモック実装。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error { return m.err }

type statusCounter struct {
	statuses []int
}

func (s *statusCounter) RecordHTTPStatus(statusCode int) { s.statuses = append(s.statuses, statusCode) }

type routerFixture struct {
	handler  http.Handler
	courses  *mockCourseService
	rounds   *mockRoundService
	overview *mockOverviewService
	friends  *mockFriendService
	statuses *statusCounter
}

func newRouterFixture(t *testing.T, rlCfg middleware.RateLimiterConfig) *routerFixture {
	t.Helper()
	rl := middleware.NewRateLimiter(rlCfg)
	t.Cleanup(rl.Stop)

	f := &routerFixture{
		courses:  &mockCourseService{},
		rounds:   &mockRoundService{},
		overview: &mockOverviewService{},
		friends:  &mockFriendService{},
		statuses: &statusCounter{},
	}
	f.handler = NewRouter(&RouterDeps{
		Logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		SessionFinder:      &mockSessionFinder{sessions: map[string]int64{"valid-session": 1}},
		CORSAllowedOrigin:  "http://localhost:3000",
		RateLimiter:        rl,
		HTTPStatusRecorder: f.statuses,
		HealthChecker:      &mockHealthChecker{},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "# metrics\n")
		}),
		CourseService:   f.courses,
		RoundService:    f.rounds,
		OverviewService: f.overview,
		FriendService:   f.friends,
	})
	return f
}

func authedRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"})
	return req
}

func TestNewRouter_HealthIsPublic(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("X-Request-ID ヘッダーが付与されるべき")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("セキュリティヘッダーが付与されるべき")
	}
}

func TestNewRouter_HealthReportsDatabaseFailure(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rl.Stop()
	h := NewRouter(&RouterDeps{
		SessionFinder: &mockSessionFinder{},
		RateLimiter:   rl,
		HealthChecker: &mockHealthChecker{err: errors.New("connection refused")},
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestNewRouter_MetricsIsPublic(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "# metrics") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestNewRouter_APIRequiresSession(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/courses"},
		{http.MethodGet, "/api/users/1/played-courses"},
		{http.MethodPost, "/api/users/1/mark-played"},
		{http.MethodPost, "/api/rounds"},
		{http.MethodGet, "/api/rounds"},
		{http.MethodDelete, "/api/rounds/1"},
		{http.MethodGet, "/api/overview"},
		{http.MethodGet, "/api/friends"},
		{http.MethodGet, "/api/friends/requests"},
		{http.MethodPost, "/api/friends/request/2"},
		{http.MethodPost, "/api/friends/respond/3"},
		{http.MethodGet, "/api/friends/search"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			f.handler.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestNewRouter_RoutesToHandlers(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	var called []string
	f.courses.listCoursesFn = func(ctx context.Context, userID int64) ([]courseResponse, error) {
		called = append(called, "ListCourses")
		return []courseResponse{}, nil
	}
	f.courses.listPlayedCoursesFn = func(ctx context.Context, userID int64) ([]courseResponse, error) {
		called = append(called, "ListPlayedCourses")
		return []courseResponse{}, nil
	}
	f.rounds.deleteRoundFn = func(ctx context.Context, userID, roundID int64) error {
		if roundID != 8 {
			t.Errorf("roundID = %d, want 8", roundID)
		}
		called = append(called, "DeleteRound")
		return nil
	}
	f.overview.overviewFn = func(ctx context.Context, userID int64) (*overviewResponse, error) {
		called = append(called, "Overview")
		return &overviewResponse{}, nil
	}
	f.friends.leaderboardFn = func(ctx context.Context, userID int64) ([]friendEntryResponse, error) {
		called = append(called, "Leaderboard")
		return []friendEntryResponse{}, nil
	}
	f.friends.respondFn = func(ctx context.Context, userID, friendshipID int64, action string) error {
		if action != "REJECT" {
			t.Errorf("action = %q, want REJECT", action)
		}
		called = append(called, "Respond")
		return nil
	}

	requests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/courses", http.StatusOK},
		{http.MethodGet, "/api/users/2/played-courses", http.StatusOK},
		{http.MethodDelete, "/api/rounds/8", http.StatusNoContent},
		{http.MethodGet, "/api/overview", http.StatusOK},
		{http.MethodGet, "/api/friends", http.StatusOK},
		{http.MethodPost, "/api/friends/respond/3?action=REJECT", http.StatusOK},
	}

	for _, rr := range requests {
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, authedRequest(rr.method, rr.path, nil))
		if w.Code != rr.want {
			t.Errorf("%s %s status = %d, want %d", rr.method, rr.path, w.Code, rr.want)
		}
	}

	want := []string{"ListCourses", "ListPlayedCourses", "DeleteRound", "Overview", "Leaderboard", "Respond"}
	if strings.Join(called, ",") != strings.Join(want, ",") {
		t.Errorf("called = %v, want %v", called, want)
	}
}

func TestNewRouter_RoundLoggingHasOwnRateLimit(t *testing.T) {
	cfg := middleware.NewRateLimiterConfig(120, 1)
	f := newRouterFixture(t, cfg)

	body := `{"courseId":1,"date":"2024-06-15","score":80}`

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/rounds", bytes.NewBufferString(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("1回目 status = %d, want %d", w.Code, http.StatusCreated)
	}

	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/rounds", bytes.NewBufferString(body)))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("2回目 status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// ラウンド一覧は記録用の制限を受けない
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/rounds", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/rounds status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestNewRouter_RecordsHTTPStatus(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	f.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	f.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/courses", nil))

	if len(f.statuses.statuses) != 2 {
		t.Fatalf("記録数 = %d, want 2", len(f.statuses.statuses))
	}
	if f.statuses.statuses[0] != http.StatusOK || f.statuses.statuses[1] != http.StatusUnauthorized {
		t.Errorf("statuses = %v, want [200 401]", f.statuses.statuses)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	f := newRouterFixture(t, middleware.DefaultRateLimiterConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/rounds", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	f.handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
