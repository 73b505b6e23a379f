package models

import (
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	gorm.Model
	Name               string                                 `gorm:"not null" json:"name"`
	Description        string                                 `json:"description"`
	Category           string                                 `gorm:"index" json:"category"`
	Tags               datatypes.JSONSlice[string]            `json:"tags"`
	ImageURL           string                                 `json:"image_url"`
	NumVideos          int                                    `json:"num_videos"` // declared default lecture count
	VideoURLs          datatypes.JSONSlice[string]            `json:"video_urls"`
	DocumentURLs       datatypes.JSONSlice[string]            `json:"document_urls"`
	AdditionalLectures datatypes.JSONSlice[AdditionalLecture] `json:"additional_lectures"`
	Quiz               datatypes.JSONSlice[QuizQuestion]      `json:"quiz,omitempty"`
}

// TotalLectures is the denominator for completion: declared lectures plus extras.
func (c *Course) TotalLectures() int {
	return c.NumVideos + len(c.AdditionalLectures)
}

func (c *Course) TagList() string {
	return strings.Join(c.Tags, ", ")
}

// AdditionalLecture is an ad hoc lecture appended after the declared ones.
type AdditionalLecture struct {
	Video    string       `json:"video,omitempty"`
	Document string       `json:"document,omitempty"`
	Names    LectureNames `json:"names"`
}

type LectureNames struct {
	Video    string `json:"video,omitempty"`
	Document string `json:"document,omitempty"`
}

type QuizQuestion struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,len=4,dive,required"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
}

type Enrollment struct {
	gorm.Model
	UserID   uint `gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID uint `gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
}
