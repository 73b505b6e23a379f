package controllers

import (
	"errors"
	"fmt"
	"time"

	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/services"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const topCoursesLimit = 3

type AnalyticsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Log: log.With("controller", "analytics")}
}

// UserDashboard godoc
// @Summary Learner dashboard
// @Description Profile, enrolled courses with progress, other courses, pending reminders and monthly usage
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (ac *AnalyticsController) UserDashboard(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)
	now := time.Now()
	month, _ := services.ParseMonth("", now)

	var (
		user          models.User
		all           []models.Course
		enrolledIDs   []uint
		progress      []models.CourseProgress
		notifications []models.Notification
		usage         map[string]float64
		loginDays     int
	)

	g, ctx := errgroup.WithContext(c.UserContext())
	db := ac.DB.WithContext(ctx)
	g.Go(func() error { return db.First(&user, userID).Error })
	g.Go(func() (err error) {
		all, err = services.ListCourses(db, services.CourseFilter{})
		return err
	})
	g.Go(func() (err error) {
		enrolledIDs, err = services.EnrolledCourseIDs(db, userID)
		return err
	})
	g.Go(func() (err error) {
		progress, err = services.ProgressForUser(db, userID)
		return err
	})
	g.Go(func() (err error) {
		notifications, err = services.ListNotifications(db, userID)
		return err
	})
	g.Go(func() (err error) {
		usage, err = services.MonthUsage(db, userID, month)
		return err
	})
	g.Go(func() (err error) {
		loginDays, err = services.LoginDays(db, userID, month)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return serviceError(c, ac.Log, fmt.Errorf("load dashboard: %w", err))
	}

	enrolled, others := services.SplitCatalog(all, enrolledIDs)
	byCourse := make(map[uint]models.CourseProgress, len(progress))
	for _, p := range progress {
		byCourse[p.CourseID] = p
	}
	enrolledViews := make([]fiber.Map, 0, len(enrolled))
	for i := range enrolled {
		v := courseView(&enrolled[i], false)
		v["progress"] = byCourse[enrolled[i].ID]
		enrolledViews = append(enrolledViews, v)
	}
	otherViews := make([]fiber.Map, 0, len(others))
	for i := range others {
		otherViews = append(otherViews, courseView(&others[i], false))
	}

	var hours float64
	for _, h := range usage {
		hours += h
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"name":             user.DisplayName(),
		"profile_picture":  user.ProfilePicture,
		"enrolled_courses": enrolledViews,
		"other_courses":    otherViews,
		"notifications":    notifications,
		"usage": fiber.Map{
			"month":       month.Format("2006-01"),
			"days":        usage,
			"total_hours": hours,
			"login_days":  loginDays,
		},
	})
}

// AdminDashboard godoc
// @Summary Admin dashboard
// @Description All courses, learners, top courses by completed lectures and registrations per day
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/dashboard [get]
func (ac *AnalyticsController) AdminDashboard(c *fiber.Ctx) error {
	adminID := utils.CurrentUserID(c)

	var (
		admin    models.User
		courses  []models.Course
		learners []models.User
		top      []models.TopCourse
	)

	g, ctx := errgroup.WithContext(c.UserContext())
	db := ac.DB.WithContext(ctx)
	g.Go(func() error { return db.First(&admin, adminID).Error })
	g.Go(func() (err error) {
		courses, err = services.ListCourses(db, services.CourseFilter{})
		return err
	})
	g.Go(func() error {
		return db.Where("role = ?", models.RoleLearner).Order("id").Find(&learners).Error
	})
	g.Go(func() (err error) {
		top, err = services.TopCourses(db, topCoursesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return serviceError(c, ac.Log, fmt.Errorf("load admin dashboard: %w", err))
	}

	courseViews := make([]fiber.Map, 0, len(courses))
	for i := range courses {
		courseViews = append(courseViews, courseView(&courses[i], true))
	}
	learnerViews := make([]fiber.Map, 0, len(learners))
	for i := range learners {
		learnerViews = append(learnerViews, profilePayload(&learners[i]))
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"admin":                 profilePayload(&admin),
		"courses":               courseViews,
		"learners":              learnerViews,
		"top_courses":           top,
		"registrations_per_day": services.RegistrationsPerDay(learners),
		"timestamp":             time.Now().Format(time.RFC3339),
	})
}
