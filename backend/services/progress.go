package services

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"learnify/backend/models"

	"gorm.io/gorm"
)

// CompletionMap is course id -> completed lecture numbers (ascending).
type CompletionMap map[uint][]int

// Percent is completed/total*100 rounded to two decimals, capped at 100.
// A course with no lectures is 0%.
func Percent(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := float64(completed) / float64(total) * 100
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}

// NewCourseProgress counts only completed numbers that still name a
// lecture of c; numbers left over from a larger course are ignored.
func NewCourseProgress(c *models.Course, completed []int) models.CourseProgress {
	total := c.TotalLectures()
	done := 0
	for _, n := range completed {
		if n >= 1 && n <= total {
			done++
		}
	}
	return models.CourseProgress{
		CourseID:          c.ID,
		Name:              c.Name,
		TotalLectures:     total,
		CompletedLectures: done,
		Percent:           Percent(done, total),
	}
}

func LoadCompletionMap(db *gorm.DB, userID uint) (CompletionMap, error) {
	var rows []models.LectureCompletion
	if err := db.Where("user_id = ?", userID).Order("course_id, lecture").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load completion map: %w", err)
	}
	out := make(CompletionMap)
	for _, r := range rows {
		out[r.CourseID] = append(out[r.CourseID], r.Lecture)
	}
	return out, nil
}

func CompletedLectures(db *gorm.DB, userID, courseID uint) ([]int, error) {
	var numbers []int
	err := db.Model(&models.LectureCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("lecture").
		Pluck("lecture", &numbers).Error
	if err != nil {
		return nil, fmt.Errorf("load completed lectures: %w", err)
	}
	return numbers, nil
}

// PruneCompletions drops every learner's completions above total, after a
// course lost lectures.
func PruneCompletions(db *gorm.DB, courseID uint, total int) (int64, error) {
	res := db.Where("course_id = ? AND lecture > ?", courseID, total).Delete(&models.LectureCompletion{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune completions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ToggleLecture flips the completion state of lecture number for the user
// and returns the new state together with the refreshed course progress.
func ToggleLecture(db *gorm.DB, userID uint, course *models.Course, number int) (bool, models.CourseProgress, error) {
	var (
		completed bool
		progress  models.CourseProgress
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := IsEnrolled(tx, userID, course.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotEnrolled
		}
		if number < 1 || number > course.TotalLectures() {
			return fmt.Errorf("%w: %d not in [1, %d]", ErrLectureOutOfRange, number, course.TotalLectures())
		}

		var existing models.LectureCompletion
		err = tx.Where("user_id = ? AND course_id = ? AND lecture = ?", userID, course.ID, number).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("uncheck lecture: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.LectureCompletion{UserID: userID, CourseID: course.ID, Lecture: number}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("check lecture: %w", err)
			}
			completed = true
		default:
			return fmt.Errorf("load lecture state: %w", err)
		}

		numbers, err := CompletedLectures(tx, userID, course.ID)
		if err != nil {
			return err
		}
		progress = NewCourseProgress(course, numbers)
		return nil
	})
	return completed, progress, err
}

// ProgressForUser returns progress for every enrolled course that still exists.
func ProgressForUser(db *gorm.DB, userID uint) ([]models.CourseProgress, error) {
	courses, err := EnrolledCourses(db, userID)
	if err != nil {
		return nil, err
	}
	completion, err := LoadCompletionMap(db, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.CourseProgress, 0, len(courses))
	for i := range courses {
		out = append(out, NewCourseProgress(&courses[i], completion[courses[i].ID]))
	}
	return out, nil
}

// TopCourses ranks courses by the total number of completed lectures
// across all learners. Ties keep the lower course id first.
func TopCourses(db *gorm.DB, limit int) ([]models.TopCourse, error) {
	type row struct {
		CourseID uint
		Total    int
	}
	var rows []row
	err := db.Model(&models.LectureCompletion{}).
		Select("course_id, COUNT(*) AS total").
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}
	if len(rows) == 0 {
		return []models.TopCourse{}, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CourseID)
	}
	var courses []models.Course
	if err := db.Select("id", "name").Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("load top courses: %w", err)
	}
	names := make(map[uint]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
	}

	out := make([]models.TopCourse, 0, len(rows))
	for _, r := range rows {
		name, ok := names[r.CourseID]
		if !ok {
			continue
		}
		out = append(out, models.TopCourse{CourseID: r.CourseID, Name: name, Completions: r.Total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Completions != out[j].Completions {
			return out[i].Completions > out[j].Completions
		}
		return out[i].CourseID < out[j].CourseID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
