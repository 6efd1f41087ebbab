package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/norskgolf/internal/catalog"
	"github.com/hitoshi/norskgolf/internal/config"
	"github.com/hitoshi/norskgolf/internal/database"
	"github.com/hitoshi/norskgolf/internal/handler"
	"github.com/hitoshi/norskgolf/internal/ledger"
	"github.com/hitoshi/norskgolf/internal/logger"
	"github.com/hitoshi/norskgolf/internal/metrics"
	"github.com/hitoshi/norskgolf/internal/middleware"
	"github.com/hitoshi/norskgolf/internal/progress"
	"github.com/hitoshi/norskgolf/internal/repository"
	"github.com/hitoshi/norskgolf/internal/security"
	"github.com/hitoshi/norskgolf/internal/social"
	"github.com/hitoshi/norskgolf/internal/worker/cleanup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// connectTimeout は起動時のDB疎通確認の制限時間。
const connectTimeout = 10 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数のConfigを読み込み、ログレベルを反映する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// 3. 設定されたログレベルを反映する
	logger.SetLevel(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandImport:
		return runImport(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established")
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// マイグレーションとカタログ取り込みを終えてから全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続とマイグレーション
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := runMigrate(cfg); err != nil {
		return err
	}

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. カタログ取り込み（失敗しても起動は継続する）
	importer := newImporter(cfg, db, collector, slog.Default())
	if _, err := importer.ImportIfEmpty(context.Background()); err != nil {
		slog.Error("course catalog import failed, continuing startup",
			slog.String("error", err.Error()),
		)
	}

	// 4. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	courseRepo := repository.NewPostgresCourseRepo(db)
	playedRepo := repository.NewPostgresPlayedCourseRepo(db)
	roundRepo := repository.NewPostgresRoundRepo(db)
	friendshipRepo := repository.NewPostgresFriendshipRepo(db)
	transactor := repository.NewPostgresTransactor(db)

	// 5. ドメインサービスの初期化
	ledgerService := ledger.NewService(userRepo, courseRepo, playedRepo, roundRepo, transactor, collector, slog.Default())
	progressService := progress.NewService(userRepo, courseRepo, playedRepo, roundRepo)
	socialService := social.NewService(userRepo, friendshipRepo, playedRepo, roundRepo, slog.Default())

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitRoundLog))
	defer rateLimiter.Stop()

	ledgerAdapter := handler.NewLedgerServiceAdapter(ledgerService)
	deps := &handler.RouterDeps{
		Logger:             slog.Default(),
		SessionFinder:      sessionRepo,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		RateLimiter:        rateLimiter,
		HTTPStatusRecorder: collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		CourseService:   ledgerAdapter,
		RoundService:    ledgerAdapter,
		OverviewService: handler.NewProgressServiceAdapter(progressService),
		FriendService:   handler.NewSocialServiceAdapter(socialService),
	}

	router := handler.NewRouter(deps)

	// 7. 期限切れセッションのクリーンアップをバックグラウンドで起動
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupJob := cleanup.NewSessionCleanupJob(db, slog.Default())
	go cleanupJob.Start(ctx, cfg.SessionCleanupInterval)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
		slog.Info("shutting down API server...")
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runImport はコースカタログの取り込みのみを実行する。
// カタログが登録済みの場合は何もしない。全データソースが失敗した場合はエラーを返す。
func runImport(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	importer := newImporter(cfg, db, metrics.NewCollector(registry), slog.Default())

	result, err := importer.ImportIfEmpty(context.Background())
	if err != nil {
		return fmt.Errorf("catalog import failed: %w", err)
	}

	slog.Info("catalog import command finished",
		slog.Bool("skipped", result.Skipped),
		slog.String("source", result.Source),
		slog.Int("imported", result.Imported),
	)
	return nil
}

// newImporter はDBに書き込むカタログImporterを生成する。
func newImporter(cfg *config.Config, db *sql.DB, collector metrics.MetricsCollector, log *slog.Logger) *catalog.Importer {
	store := catalog.NewRepositoryStore(
		repository.NewPostgresCourseRepo(db),
		repository.NewPostgresTransactor(db),
	)
	parser := catalog.NewParser(security.NewNameSanitizer())
	return catalog.NewImporter(store, parser, log, collector, catalogSources(cfg, security.NewSSRFGuard(), log)...)
}

// catalogSources は設定に従ってデータソースを優先順に組み立てる。
// ローカルスナップショットが常に先頭で、リモート取得は有効かつURLが安全な場合のみ追加する。
func catalogSources(cfg *config.Config, guard security.SSRFGuardService, log *slog.Logger) []catalog.CourseSource {
	sources := []catalog.CourseSource{catalog.NewFileSnapshotSource(cfg.CatalogSnapshotPath)}

	if !cfg.CatalogRemoteEnabled {
		return sources
	}
	if err := guard.ValidateURL(cfg.CatalogRemoteURL); err != nil {
		log.Warn("remote catalog source disabled: unsafe URL",
			slog.String("url", cfg.CatalogRemoteURL),
			slog.String("error", err.Error()),
		)
		return sources
	}

	client := guard.NewSafeClient(cfg.CatalogRemoteTimeout)
	return append(sources, catalog.NewOverpassSource(client, log, cfg.CatalogRemoteURL, cfg.CatalogRemoteMaxSize))
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	return checkHealth(fmt.Sprintf("http://localhost:%s/health", port))
}

func checkHealth(healthURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(healthURL)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
