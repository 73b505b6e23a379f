package models

import (
	"time"

	"gorm.io/datatypes"
)

// LectureCompletion is one entry of a user's completion map. Rows are hard
// deleted when a lecture is unchecked.
type LectureCompletion struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	UserID    uint      `gorm:"uniqueIndex:idx_completion_user_course_lecture;not null" json:"user_id"`
	CourseID  uint      `gorm:"uniqueIndex:idx_completion_user_course_lecture;not null" json:"course_id"`
	Lecture   int       `gorm:"uniqueIndex:idx_completion_user_course_lecture;not null" json:"lecture"`
	CreatedAt time.Time `json:"completed_at"`
}

type QuizSubmission struct {
	ID        uint                         `gorm:"primarykey" json:"id"`
	UserID    uint                         `gorm:"uniqueIndex:idx_submission_user_course;not null" json:"user_id"`
	CourseID  uint                         `gorm:"uniqueIndex:idx_submission_user_course;not null" json:"course_id"`
	Answers   datatypes.JSONSlice[*string] `json:"user_answered"`
	Score     int                          `json:"score"`
	Total     int                          `json:"total"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

type DailyUsage struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	UserID     uint      `gorm:"uniqueIndex:idx_usage_user_date;not null" json:"-"`
	Date       string    `gorm:"uniqueIndex:idx_usage_user_date;size:10;not null" json:"date"` // YYYY-MM-DD
	HoursSpent float64   `json:"hours_spent"`
	UpdatedAt  time.Time `json:"-"`
}
