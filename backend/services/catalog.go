package services

import (
	"errors"
	"fmt"
	"strings"

	"learnify/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseFilter narrows the catalog. FilterBy is one of name, category, tags
// or description; Search matches name or description. Both are
// case-insensitive substring matches and combine with AND.
type CourseFilter struct {
	FilterBy    string
	FilterValue string
	Search      string
}

var filterFields = map[string]bool{"name": true, "category": true, "tags": true, "description": true}

func ValidFilterField(field string) bool {
	return field == "" || filterFields[strings.ToLower(field)]
}

func (f CourseFilter) Match(c *models.Course) bool {
	if v := strings.TrimSpace(f.FilterValue); v != "" && f.FilterBy != "" {
		var field string
		switch strings.ToLower(f.FilterBy) {
		case "name":
			field = c.Name
		case "category":
			field = c.Category
		case "tags":
			field = c.TagList()
		case "description":
			field = c.Description
		}
		if !containsFold(field, v) {
			return false
		}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		if !containsFold(c.Name, s) && !containsFold(c.Description, s) {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func ListCourses(db *gorm.DB, f CourseFilter) ([]models.Course, error) {
	var courses []models.Course
	if err := db.Order("id").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out := courses[:0]
	for i := range courses {
		if f.Match(&courses[i]) {
			out = append(out, courses[i])
		}
	}
	return out, nil
}

func FindCourse(db *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course %d: %w", id, err)
	}
	return &course, nil
}

// Enroll adds the course to the user's enrolled set. Enrolling twice is a no-op.
func Enroll(db *gorm.DB, userID, courseID uint) error {
	if _, err := FindCourse(db, courseID); err != nil {
		return err
	}
	e := models.Enrollment{UserID: userID, CourseID: courseID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

func IsEnrolled(db *gorm.DB, userID, courseID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return count > 0, nil
}

func EnrolledCourseIDs(db *gorm.DB, userID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&models.Enrollment{}).Where("user_id = ?", userID).Order("id").Pluck("course_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	return ids, nil
}

// EnrolledCourses skips enrollments whose course no longer exists.
func EnrolledCourses(db *gorm.DB, userID uint) ([]models.Course, error) {
	ids, err := EnrolledCourseIDs(db, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	var courses []models.Course
	if err := db.Where("id IN ?", ids).Order("id").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("load enrolled courses: %w", err)
	}
	return courses, nil
}

// ParseTags splits a comma separated tag list.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
