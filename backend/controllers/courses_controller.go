package controllers

import (
	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/services"
	"learnify/backend/storage"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CoursesController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store storage.Store
	Log   *utils.Logger
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, store storage.Store, log *utils.Logger) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Store: store, Log: log.With("controller", "courses")}
}

func courseView(course *models.Course, withQuiz bool) fiber.Map {
	view := fiber.Map{
		"id":                  course.ID,
		"name":                course.Name,
		"description":         course.Description,
		"category":            course.Category,
		"tags":                course.Tags,
		"image_url":           course.ImageURL,
		"num_videos":          course.NumVideos,
		"video_urls":          course.VideoURLs,
		"document_urls":       course.DocumentURLs,
		"additional_lectures": course.AdditionalLectures,
		"total_lectures":      course.TotalLectures(),
		"created_at":          course.CreatedAt,
	}
	if withQuiz {
		view["quiz"] = course.Quiz
	} else {
		view["has_quiz"] = len(course.Quiz) > 0
	}
	return view
}

func filterFromQuery(c *fiber.Ctx) (services.CourseFilter, bool) {
	f := services.CourseFilter{
		FilterBy:    c.Query("filter_by"),
		FilterValue: c.Query("filter_value"),
		Search:      c.Query("search"),
	}
	return f, services.ValidFilterField(f.FilterBy)
}

// ListCourses godoc
// @Summary List catalog courses
// @Description Every course with an enrolled flag for the caller
// @Tags courses
// @Produce json
// @Param filter_by query string false "name, category, tags or description"
// @Param filter_value query string false "substring to match"
// @Param search query string false "matches name or description"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /courses [get]
func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	filter, ok := filterFromQuery(c)
	if !ok {
		return utils.BadRequest(c, "filter_by must be one of name, category, tags, description")
	}
	courses, err := services.ListCourses(cc.DB, filter)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	enrolled, err := services.EnrolledCourseIDs(cc.DB, utils.CurrentUserID(c))
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	isEnrolled := make(map[uint]bool, len(enrolled))
	for _, id := range enrolled {
		isEnrolled[id] = true
	}

	out := make([]fiber.Map, 0, len(courses))
	for i := range courses {
		v := courseView(&courses[i], false)
		v["enrolled"] = isEnrolled[courses[i].ID]
		out = append(out, v)
	}
	return utils.Success(c, fiber.StatusOK, out)
}

func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, err := services.FindCourse(cc.DB, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	enrolled, err := services.IsEnrolled(cc.DB, utils.CurrentUserID(c), id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	v := courseView(course, false)
	v["enrolled"] = enrolled
	return utils.Success(c, fiber.StatusOK, v)
}

func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	userID := utils.CurrentUserID(c)
	if err := services.Enroll(cc.DB, userID, id); err != nil {
		return serviceError(c, cc.Log, err)
	}
	cc.Log.Info("enrolled", "user_id", userID, "course_id", id)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"course_id": id, "enrolled": true})
}

// GetEnrolledCourses skips enrollments whose course was deleted.
func (cc *CoursesController) GetEnrolledCourses(c *fiber.Ctx) error {
	courses, err := services.EnrolledCourses(cc.DB, utils.CurrentUserID(c))
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	out := make([]fiber.Map, 0, len(courses))
	for i := range courses {
		out = append(out, courseView(&courses[i], false))
	}
	return utils.Success(c, fiber.StatusOK, out)
}

func (cc *CoursesController) GetLectures(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, err := services.FindCourse(cc.DB, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	userID := utils.CurrentUserID(c)
	enrolled, err := services.IsEnrolled(cc.DB, userID, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	if !enrolled {
		return serviceError(c, cc.Log, services.ErrNotEnrolled)
	}
	completed, err := services.CompletedLectures(cc.DB, userID, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id":      course.ID,
		"name":           course.Name,
		"total_lectures": course.TotalLectures(),
		"lectures":       services.BuildLectures(course, completed),
		"progress":       services.NewCourseProgress(course, completed),
	})
}
