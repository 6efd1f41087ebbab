// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 取り込み結果のラベル値
const (
	OutcomeImported    = "imported"
	OutcomeUnavailable = "unavailable"
	OutcomeInvalid     = "invalid"
)

// MetricsCollector はメトリクス収集のインターフェース。
// カタログ取り込み、プレー記録、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordImport(source, outcome string)
	RecordCoursesImported(count int)
	RecordElementsSkipped(reason string, count int)
	RecordSourceLatency(source string, duration time.Duration)
	RecordRoundLogged()
	RecordRoundDeleted()
	RecordDuplicateSuppressed(entity string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	imports             *prometheus.CounterVec
	coursesImported     prometheus.Counter
	elementsSkipped     *prometheus.CounterVec
	sourceLatency       *prometheus.HistogramVec
	roundsLogged        prometheus.Counter
	roundsDeleted       prometheus.Counter
	duplicateSuppressed *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "norskgolf_catalog_import_total",
			Help: "データソース別・結果別のカタログ取り込み試行数",
		}, []string{"source", "outcome"}),
		coursesImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "norskgolf_catalog_courses_imported_total",
			Help: "取り込まれたコースの合計数",
		}),
		elementsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "norskgolf_catalog_elements_skipped_total",
			Help: "理由別の取り込み対象外要素数",
		}, []string{"reason"}),
		sourceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "norskgolf_catalog_source_latency_seconds",
			Help:    "データソース取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		roundsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "norskgolf_rounds_logged_total",
			Help: "記録されたラウンドの合計数",
		}),
		roundsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "norskgolf_rounds_deleted_total",
			Help: "削除されたラウンドの合計数",
		}),
		duplicateSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "norskgolf_duplicate_suppressed_total",
			Help: "一意制約違反を成功扱いにした回数",
		}, []string{"entity"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "norskgolf_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.imports,
		c.coursesImported,
		c.elementsSkipped,
		c.sourceLatency,
		c.roundsLogged,
		c.roundsDeleted,
		c.duplicateSuppressed,
		c.httpStatus,
	)

	return c
}

// RecordImport はデータソースごとの取り込み結果を記録する。
func (c *Collector) RecordImport(source, outcome string) {
	c.imports.WithLabelValues(source, outcome).Inc()
}

// RecordCoursesImported は取り込まれたコース数を記録する。
func (c *Collector) RecordCoursesImported(count int) {
	c.coursesImported.Add(float64(count))
}

// RecordElementsSkipped は取り込み対象外となった要素数を記録する。
func (c *Collector) RecordElementsSkipped(reason string, count int) {
	if count <= 0 {
		return
	}
	c.elementsSkipped.WithLabelValues(reason).Add(float64(count))
}

// RecordSourceLatency はデータソース取得のレイテンシを記録する。
func (c *Collector) RecordSourceLatency(source string, duration time.Duration) {
	c.sourceLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordRoundLogged はラウンド記録を記録する。
func (c *Collector) RecordRoundLogged() {
	c.roundsLogged.Inc()
}

// RecordRoundDeleted はラウンド削除を記録する。
func (c *Collector) RecordRoundDeleted() {
	c.roundsDeleted.Inc()
}

// RecordDuplicateSuppressed は一意制約違反の抑止を記録する。
func (c *Collector) RecordDuplicateSuppressed(entity string) {
	c.duplicateSuppressed.WithLabelValues(entity).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
