package services

import "errors"

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrNotEnrolled          = errors.New("not enrolled in course")
	ErrLectureOutOfRange    = errors.New("lecture number out of range")
	ErrEmptyQuiz            = errors.New("course has no quiz")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidSchedule      = errors.New("invalid notification date or time")
	ErrInvalidSession       = errors.New("invalid session duration")
	ErrNotEligible          = errors.New("course not completed")
	ErrTooManyLectures      = errors.New("more files than declared lectures")
)
