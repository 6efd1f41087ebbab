package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hitoshi/norskgolf/internal/model"
	"github.com/hitoshi/norskgolf/internal/region"
	"github.com/hitoshi/norskgolf/internal/security"
	"github.com/tidwall/gjson"
)

// regionTags は地域名として参照するタグ。先頭から順に評価する。
var regionTags = []string{"addr:county", "is_in:county", "county"}

// 要素を取り込み対象外とした理由
const (
	SkipMissingName        = "missing_name"
	SkipMissingCoordinates = "missing_coordinates"
	SkipDuplicateName      = "duplicate_name"
)

// ParseStats は1回の解析における要素の集計。
type ParseStats struct {
	Total    int
	Accepted int
	Skipped  map[string]int
}

// Parser はOverpass形式の文書からコースを抽出する。
type Parser struct {
	sanitizer security.NameSanitizerService
}

// NewParser はParserを生成する。sanitizerがnilの場合はコース名の前後空白のみ除去する。
func NewParser(sanitizer security.NameSanitizerService) *Parser {
	return &Parser{sanitizer: sanitizer}
}

// Parse は文書のelements配列からコースを抽出する。
//
// 要素ごとの規則:
//   - tags.nameが無い、または無害化後に空になる要素は除外
//   - center、次いでlat/lonの順に座標を探し、無ければ除外
//   - 同一の解析内で既出の名前は除外（先勝ち）
//   - 数値のidを外部IDとする
//   - 地域はタグを優先し、無ければ座標から推定する
//
// 文書がJSONオブジェクトでない、またはelements配列を持たない場合はエラーを返す。
func (p *Parser) Parse(doc []byte) ([]*model.Course, ParseStats, error) {
	stats := ParseStats{Skipped: make(map[string]int)}

	if !gjson.ValidBytes(doc) {
		return nil, stats, fmt.Errorf("不正なJSON文書です")
	}
	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, stats, fmt.Errorf("文書がJSONオブジェクトではありません")
	}
	elements := root.Get("elements")
	if !elements.IsArray() {
		return nil, stats, fmt.Errorf("elements配列がありません")
	}

	seen := make(map[string]struct{})
	var courses []*model.Course

	elements.ForEach(func(_, el gjson.Result) bool {
		stats.Total++

		tags := el.Get("tags").Map()
		name := p.cleanName(tags["name"].String())
		if name == "" {
			stats.Skipped[SkipMissingName]++
			return true
		}

		lat, lon, ok := coordinates(el)
		if !ok {
			stats.Skipped[SkipMissingCoordinates]++
			return true
		}

		if _, dup := seen[name]; dup {
			stats.Skipped[SkipDuplicateName]++
			return true
		}
		seen[name] = struct{}{}

		regionName := regionFromTags(tags)
		if regionName == "" {
			regionName = region.Estimate(lat, lon)
		}

		courses = append(courses, &model.Course{
			ExternalID: externalID(el.Get("id")),
			Name:       name,
			Latitude:   lat,
			Longitude:  lon,
			Region:     &regionName,
		})
		stats.Accepted++
		return true
	})

	return courses, stats, nil
}

func (p *Parser) cleanName(raw string) string {
	if p.sanitizer != nil {
		return p.sanitizer.Clean(raw)
	}
	return strings.TrimSpace(raw)
}

// coordinates は要素の座標を返す。centerを優先し、無ければ直接のlat/lonを使用する。
func coordinates(el gjson.Result) (lat, lon float64, ok bool) {
	if center := el.Get("center"); center.IsObject() {
		if lat, lon, ok := latLon(center); ok {
			return lat, lon, true
		}
	}
	return latLon(el)
}

func latLon(r gjson.Result) (float64, float64, bool) {
	lat, lon := r.Get("lat"), r.Get("lon")
	if lat.Type != gjson.Number || lon.Type != gjson.Number {
		return 0, 0, false
	}
	return lat.Float(), lon.Float(), true
}

func regionFromTags(tags map[string]gjson.Result) string {
	for _, key := range regionTags {
		if v := strings.TrimSpace(tags[key].String()); v != "" {
			return v
		}
	}
	return ""
}

// externalID は数値のidを10進文字列にする。数値でない場合はnilを返す。
func externalID(id gjson.Result) *string {
	if id.Type != gjson.Number {
		return nil
	}
	s := strconv.FormatInt(id.Int(), 10)
	return &s
}
