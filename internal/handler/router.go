package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/norskgolf/internal/middleware"
)

// healthCheckTimeout はヘルスチェック時のDB疎通確認のタイムアウト。
const healthCheckTimeout = 3 * time.Second

// HealthChecker はデータベースの疎通確認を行うインターフェース。
// *sql.DB がこれを満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	SessionFinder      middleware.SessionFinder
	CORSAllowedOrigin  string
	RateLimiter        *middleware.RateLimiter
	HTTPStatusRecorder middleware.HTTPStatusRecorder

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// コースとラウンド
	CourseService CourseServiceInterface
	RoundService  RoundServiceInterface

	// 制覇状況
	OverviewService OverviewServiceInterface

	// フレンド
	FriendService FriendServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → CORS → SecurityHeaders → Logging → Metrics → Recovery → Session → RateLimit(General)
//
// /health と /metrics はセッション検証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPStatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPStatusRecorder))
	}
	r.Use(middleware.NewRecoveryMiddleware(logger))

	courseHandler := NewCourseHandler(deps.CourseService)
	roundHandler := NewRoundHandler(deps.RoundService)
	overviewHandler := NewOverviewHandler(deps.OverviewService)
	friendHandler := NewFriendHandler(deps.FriendService)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/courses", courseHandler.ListCourses)

		r.Route("/api/users/{userId}", func(r chi.Router) {
			r.Get("/played-courses", courseHandler.ListPlayedCourses)
			r.Post("/mark-played", courseHandler.MarkPlayed)
		})

		r.Route("/api/rounds", func(r chi.Router) {
			// POST /api/rounds - ラウンド記録（記録専用レート制限を追加）
			r.With(deps.RateLimiter.RoundLoggingMiddleware()).Post("/", roundHandler.LogRound)
			r.Get("/", roundHandler.ListRounds)
			r.Delete("/{roundId}", roundHandler.DeleteRound)
		})

		r.Get("/api/overview", overviewHandler.Overview)

		r.Route("/api/friends", func(r chi.Router) {
			r.Get("/", friendHandler.Leaderboard)
			r.Get("/requests", friendHandler.PendingRequests)
			r.Get("/search", friendHandler.Search)
			r.Post("/request/{receiverId}", friendHandler.SendRequest)
			r.Post("/respond/{friendshipId}", friendHandler.Respond)
		})
	})

	return r
}

// healthHandler はDB疎通確認の結果を返すハンドラーを生成する。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Warn("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}
