package models

// CourseProgress is the per-course view of a user's completion map.
type CourseProgress struct {
	CourseID          uint    `json:"course_id"`
	Name              string  `json:"name"`
	TotalLectures     int     `json:"total_lectures"`
	CompletedLectures int     `json:"completed_lectures"`
	Percent           float64 `json:"percent"`
}

func (p CourseProgress) Complete() bool {
	return p.TotalLectures > 0 && p.CompletedLectures >= p.TotalLectures
}

type TopCourse struct {
	CourseID    uint   `json:"course_id"`
	Name        string `json:"name"`
	Completions int    `json:"completions"`
}

type RegistrationCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// All returns every model that is migrated on start.
func All() []interface{} {
	return []interface{}{
		&User{},
		&LoginHistory{},
		&Course{},
		&Enrollment{},
		&LectureCompletion{},
		&QuizSubmission{},
		&DailyUsage{},
		&Notification{},
	}
}
