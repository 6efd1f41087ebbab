// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Server
	ServerPort        string `env:"SERVER_PORT" envDefault:"8080"`
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Catalog
	CatalogSnapshotPath  string        `env:"CATALOG_SNAPSHOT_PATH"` // 空の場合は同梱のスナップショット
	CatalogRemoteURL     string        `env:"CATALOG_REMOTE_URL" envDefault:"https://overpass-api.de/api/interpreter"`
	CatalogRemoteEnabled bool          `env:"CATALOG_REMOTE_ENABLED" envDefault:"true"`
	CatalogRemoteTimeout time.Duration `env:"CATALOG_REMOTE_TIMEOUT" envDefault:"30s"`
	CatalogRemoteMaxSize int64         `env:"CATALOG_REMOTE_MAX_SIZE" envDefault:"20971520"`

	// Rate Limit
	RateLimitGeneral  int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`
	RateLimitRoundLog int `env:"RATE_LIMIT_ROUND_LOG" envDefault:"30"`

	// Session cleanup
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	// Logging
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数の未設定や値の形式不正はまとめて1つのエラーとして返す。
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.CatalogRemoteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_REMOTE_TIMEOUT must be positive: %s", c.CatalogRemoteTimeout))
	}
	if c.CatalogRemoteMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_REMOTE_MAX_SIZE must be positive: %d", c.CatalogRemoteMaxSize))
	}
	if c.RateLimitGeneral <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_GENERAL must be positive: %d", c.RateLimitGeneral))
	}
	if c.RateLimitRoundLog <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_ROUND_LOG must be positive: %d", c.RateLimitRoundLog))
	}
	if c.SessionCleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive: %s", c.SessionCleanupInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
