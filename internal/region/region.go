// Package region は座標からノルウェーの県（fylke）を推定する。
package region

import "github.com/hitoshi/norskgolf/internal/model"

// Unknown はどの判定にも該当しない座標に割り当てる地域名。
const Unknown = model.UnknownRegion

// 国土全体を囲む大まかな範囲。範囲外の座標は県判定を行わない。
const (
	minLat = 57.5
	maxLat = 71.5
	minLon = 4.0
	maxLon = 31.5
)

// rule は1つの県の判定条件を表す。
type rule struct {
	name  string
	match func(lat, lon float64) bool
}

// rules は評価順に並んだ県の判定条件。先に一致したものが採用される。
// 境界は全て開区間で判定する。
var rules = []rule{
	{"Troms og Finnmark", func(lat, lon float64) bool { return lon > 10.0 && lat > 68.0 }},
	{"Nordland", func(lat, lon float64) bool { return lat > 65.0 }},
	{"Trøndelag", func(lat, lon float64) bool { return lat > 62.5 && lon > 9.0 }},
	{"Vestland", func(lat, lon float64) bool { return lat > 59.5 && lat < 62.5 && lon < 8.0 }},
	{"Rogaland", func(lat, lon float64) bool { return lat < 59.5 && lon < 7.5 }},
	{"Agder", func(lat, lon float64) bool { return lat < 59.0 && lon > 7.5 }},
	{"Viken", func(lat, lon float64) bool { return lat > 59.0 && lat < 60.5 && lon > 10.0 }},
	{"Innlandet", func(lat, lon float64) bool { return lat > 60.5 && lat < 62.5 && lon > 8.0 && lon < 12.0 }},
	{"Vestfold og Telemark", func(lat, lon float64) bool { return lat > 59.0 && lon > 9.0 && lon < 10.5 }},
}

// Estimate は緯度経度から県名を推定する。
// 一致する判定が無い場合は Unknown を返す。
func Estimate(lat, lon float64) string {
	if lat < minLat || lat > maxLat || lon < minLon || lon > maxLon {
		return Unknown
	}
	for _, r := range rules {
		if r.match(lat, lon) {
			return r.name
		}
	}
	return Unknown
}

// Names は判定対象となる全ての県名を評価順に返す。
func Names() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
