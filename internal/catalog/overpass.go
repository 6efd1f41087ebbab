package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const (
	// DefaultOverpassEndpoint はOverpass APIのエンドポイント。
	DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"
	// NorwayGolfCourseQuery はノルウェー国内のゴルフコースを取得するOverpass QL。
	// out centerによりウェイとリレーションにも中心座標が付与される。
	NorwayGolfCourseQuery = `[out:json][timeout:90];area["ISO3166-1"="NO"]->.searchArea;nwr["leisure"="golf_course"](area.searchArea);out center;`
	// defaultMaxResponseSize はレスポンスボディの上限サイズ（20MB）。
	defaultMaxResponseSize = 20 * 1024 * 1024
)

// OverpassSource はOverpass APIからコース文書を取得するデータソース。
// タイムアウトはhttpClientに設定されたものが適用される。
type OverpassSource struct {
	httpClient      *http.Client
	logger          *slog.Logger
	endpoint        string
	query           string
	maxResponseSize int64
}

// NewOverpassSource はOverpassSourceを生成する。
// endpointが空の場合はDefaultOverpassEndpointを、maxResponseSizeが0以下の場合は20MBを使用する。
func NewOverpassSource(httpClient *http.Client, logger *slog.Logger, endpoint string, maxResponseSize int64) *OverpassSource {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	if maxResponseSize <= 0 {
		maxResponseSize = defaultMaxResponseSize
	}
	return &OverpassSource{
		httpClient:      httpClient,
		logger:          logger,
		endpoint:        endpoint,
		query:           NorwayGolfCourseQuery,
		maxResponseSize: maxResponseSize,
	}
}

// Name はデータソース名を返す。
func (s *OverpassSource) Name() string {
	return "overpass"
}

// Fetch はOverpass APIにクエリを送信し、レスポンスボディを返す。
// 200以外のステータス、通信エラー、上限サイズ超過はエラーとする。
func (s *OverpassSource) Fetch(ctx context.Context) ([]byte, error) {
	reqURL, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	q := reqURL.Query()
	q.Set("data", s.query)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "norskgolf/1.0 (course catalog import)")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("overpass request failed",
			slog.String("endpoint", s.endpoint),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("Overpass APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("overpass returned error status",
			slog.String("endpoint", s.endpoint),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("Overpass APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	if int64(len(body)) > s.maxResponseSize {
		return nil, fmt.Errorf("レスポンスが上限サイズ %d バイトを超えています", s.maxResponseSize)
	}

	return body, nil
}
