package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/norskgolf/internal/metrics"
	"github.com/hitoshi/norskgolf/internal/model"
)

// Result は取り込みの結果を表す。
type Result struct {
	Source   string // 取り込みに使用したデータソース名
	Imported int
	Skipped  bool // カタログが空でなかったため何もしなかった
	Stats    ParseStats
}

// Importer はカタログが空の場合にのみデータソースからコースを取り込む。
type Importer struct {
	store   Store
	parser  *Parser
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	sources []CourseSource
}

// NewImporter はImporterを生成する。sourcesは優先順に試行される。
func NewImporter(store Store, parser *Parser, logger *slog.Logger, collector metrics.MetricsCollector, sources ...CourseSource) *Importer {
	return &Importer{
		store:   store,
		parser:  parser,
		logger:  logger,
		metrics: collector,
		sources: sources,
	}
}

// ImportIfEmpty はカタログが空の場合にコースを取り込む。
//
// 1件以上登録済みなら書き込みを行わずにSkipped=trueを返す。
// データソースは優先順に試行し、取得と解析に成功し1件以上のコースが得られた最初の
// データソースを取り込んで終了する。全て失敗した場合はカタログを空のまま
// ErrNoSourceAvailableを返す。
func (i *Importer) ImportIfEmpty(ctx context.Context) (*Result, error) {
	count, err := i.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("コース数の取得に失敗しました: %w", err)
	}
	if count > 0 {
		i.logger.Info("course catalog already populated, skipping import",
			slog.Int("course_count", count),
		)
		return &Result{Skipped: true}, nil
	}

	for _, src := range i.sources {
		result, ok := i.trySource(ctx, src)
		if !ok {
			continue
		}
		if err := i.store.SaveAll(ctx, result.courses); err != nil {
			return nil, fmt.Errorf("コースの保存に失敗しました (source=%s): %w", src.Name(), err)
		}

		i.metrics.RecordImport(src.Name(), metrics.OutcomeImported)
		i.metrics.RecordCoursesImported(len(result.courses))
		for reason, n := range result.stats.Skipped {
			i.metrics.RecordElementsSkipped(reason, n)
		}
		i.logger.Info("course catalog imported",
			slog.String("source", src.Name()),
			slog.Int("imported", len(result.courses)),
			slog.Int("elements", result.stats.Total),
			slog.Int("skipped_missing_name", result.stats.Skipped[SkipMissingName]),
			slog.Int("skipped_missing_coordinates", result.stats.Skipped[SkipMissingCoordinates]),
			slog.Int("skipped_duplicate_name", result.stats.Skipped[SkipDuplicateName]),
		)
		return &Result{
			Source:   src.Name(),
			Imported: len(result.courses),
			Stats:    result.stats,
		}, nil
	}

	i.logger.Error("course catalog import failed: no source available, catalog left empty",
		slog.Int("sources_tried", len(i.sources)),
	)
	return nil, ErrNoSourceAvailable
}

type sourceResult struct {
	courses []*model.Course
	stats   ParseStats
}

// trySource はデータソースから取得と解析を行う。失敗した場合はログを出してfalseを返す。
func (i *Importer) trySource(ctx context.Context, src CourseSource) (*sourceResult, bool) {
	start := time.Now()
	doc, err := src.Fetch(ctx)
	i.metrics.RecordSourceLatency(src.Name(), time.Since(start))
	if err != nil {
		i.metrics.RecordImport(src.Name(), metrics.OutcomeUnavailable)
		i.logger.Warn("course source unavailable",
			slog.String("source", src.Name()),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	courses, stats, err := i.parser.Parse(doc)
	if err != nil {
		i.metrics.RecordImport(src.Name(), metrics.OutcomeInvalid)
		i.logger.Warn("course source returned malformed document",
			slog.String("source", src.Name()),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if len(courses) == 0 {
		i.metrics.RecordImport(src.Name(), metrics.OutcomeInvalid)
		i.logger.Warn("course source contained no usable courses",
			slog.String("source", src.Name()),
			slog.Int("elements", stats.Total),
		)
		return nil, false
	}

	return &sourceResult{courses: courses, stats: stats}, true
}
