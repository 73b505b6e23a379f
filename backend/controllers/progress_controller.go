package controllers

import (
	"strconv"
	"time"

	"learnify/backend/config"
	"learnify/backend/services"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewProgressController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg, Log: log.With("controller", "progress")}
}

// ToggleLecture godoc
// @Summary Mark a lecture done or undone
// @Tags progress
// @Produce json
// @Param id path int true "Course ID"
// @Param number path int true "Lecture number, starting at 1"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/lectures/{number}/toggle [post]
func (pc *ProgressController) ToggleLecture(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	number, err := strconv.Atoi(c.Params("number"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lecture number")
	}
	course, err := services.FindCourse(pc.DB, id)
	if err != nil {
		return serviceError(c, pc.Log, err)
	}

	completed, progress, err := services.ToggleLecture(pc.DB, utils.CurrentUserID(c), course, number)
	if err != nil {
		return serviceError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"lecture":         number,
		"completed":       completed,
		"course_progress": progress,
	})
}

// GetProgress godoc
// @Summary Get course progress
// @Description Completion percentage for every enrolled course
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	progress, err := services.ProgressForUser(pc.DB, utils.CurrentUserID(c))
	if err != nil {
		return serviceError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, progress)
}

func (pc *ProgressController) GetCompletionMap(c *fiber.Ctx) error {
	m, err := services.LoadCompletionMap(pc.DB, utils.CurrentUserID(c))
	if err != nil {
		return serviceError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, m)
}

type SessionRequest struct {
	StartedAt string `json:"started_at" validate:"required"`
}

// RecordSession adds the time since started_at to today's usage.
func (pc *ProgressController) RecordSession(c *fiber.Ctx) error {
	var req SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationError(c, errs)
	}
	startedAt, err := time.Parse(time.RFC3339, req.StartedAt)
	if err != nil {
		return utils.ValidationError(c, map[string]string{"started_at": "started_at must be an RFC3339 timestamp"})
	}

	hours, err := services.RecordSession(pc.DB, utils.CurrentUserID(c), startedAt, time.Now())
	if err != nil {
		return serviceError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"hours_added": hours})
}

// GetUsage returns hours per day for ?month=YYYY-MM (default current month).
func (pc *ProgressController) GetUsage(c *fiber.Ctx) error {
	month, err := services.ParseMonth(c.Query("month"), time.Now())
	if err != nil {
		return utils.BadRequest(c, "month must be YYYY-MM")
	}
	usage, err := services.MonthUsage(pc.DB, utils.CurrentUserID(c), month)
	if err != nil {
		return serviceError(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"month": month.Format("2006-01"),
		"days":  usage,
	})
}
