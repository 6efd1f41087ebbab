package model

import "time"

// DateLayout はラウンド日付の入出力フォーマット。
const DateLayout = "2006-01-02"

// Round はユーザーが記録した1ラウンドを表す。
type Round struct {
	ID         int64
	UserID     int64
	CourseID   int64
	Date       time.Time // 日付のみ意味を持つ（UTC 0時）
	Score      int
	Stableford *int
	CreatedAt  time.Time
}

// RoundWithCourse はコース名を伴うラウンドを表す。
type RoundWithCourse struct {
	Round
	CourseName string
}

// RoundSummary は最近のラウンド表示用の要約。
type RoundSummary struct {
	ID         int64
	CourseID   int64
	CourseName string
	Date       time.Time
	Score      int
}

// Summary はRoundWithCourseからRoundSummaryを生成する。
func (r *RoundWithCourse) Summary() RoundSummary {
	return RoundSummary{
		ID:         r.ID,
		CourseID:   r.CourseID,
		CourseName: r.CourseName,
		Date:       r.Date,
		Score:      r.Score,
	}
}
