// Package catalog はゴルフコースカタログの初期取り込みを提供する。
//
// カタログが空の場合のみ、優先順に並べたデータソースから最初に取得・解析に成功した
// ものを取り込む。取り込みは起動時に1回だけ、受付開始前に実行される。
package catalog

import (
	"context"
	"errors"
)

// ErrSourceUnavailable はデータソースが利用できないことを表す。
var ErrSourceUnavailable = errors.New("catalog: source unavailable")

// ErrNoSourceAvailable は全てのデータソースが失敗したことを表す。
var ErrNoSourceAvailable = errors.New("catalog: no source available")

// CourseSource はOverpass形式（elements配列）のコース文書を提供するデータソース。
type CourseSource interface {
	// Name はログとメトリクスに使用するデータソース名を返す。
	Name() string
	// Fetch はコース文書を取得する。
	Fetch(ctx context.Context) ([]byte, error)
}
