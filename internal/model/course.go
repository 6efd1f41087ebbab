package model

import "time"

// UnknownRegion は地域を特定できないコースの集計キー。
const UnknownRegion = "Unknown"

// Course はゴルフコースを表す。
type Course struct {
	ID         int64
	ExternalID *string // 外部データソース上のID（手動登録のコースはnil）
	Name       string
	Latitude   float64
	Longitude  float64
	Region     *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RegionOrUnknown は地域名を返す。未設定の場合は UnknownRegion を返す。
func (c *Course) RegionOrUnknown() string {
	if c.Region == nil || *c.Region == "" {
		return UnknownRegion
	}
	return *c.Region
}

// SameAs は2つのコースが同一のコースを指すかを判定する。
// 双方に外部IDがあれば外部IDで、そうでなければ名前と座標で比較する。
func (c *Course) SameAs(other *Course) bool {
	if c == nil || other == nil {
		return false
	}
	if c.ExternalID != nil && other.ExternalID != nil {
		return *c.ExternalID == *other.ExternalID
	}
	return c.Name == other.Name && c.Latitude == other.Latitude && c.Longitude == other.Longitude
}

// PlayedCourse はユーザーがプレー済みのコースを表す。
// (UserID, CourseID) の組は一意。
type PlayedCourse struct {
	ID         int64
	UserID     int64
	CourseID   int64
	BestScore  *int
	LastPlayed *time.Time
	CreatedAt  time.Time
}

// CourseView はユーザー視点のコース情報（プレー済みフラグ付き）を表す。
type CourseView struct {
	ID         int64
	Name       string
	Latitude   float64
	Longitude  float64
	ExternalID *string
	Region     string
	Played     bool
}

// NewCourseView はCourseからCourseViewを生成する。
func NewCourseView(c *Course, played bool) CourseView {
	return CourseView{
		ID:         c.ID,
		Name:       c.Name,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		ExternalID: c.ExternalID,
		Region:     c.RegionOrUnknown(),
		Played:     played,
	}
}
