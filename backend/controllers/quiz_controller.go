package controllers

import (
	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/services"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewQuizController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *QuizController {
	return &QuizController{DB: db, Cfg: cfg, Log: log.With("controller", "quiz")}
}

type SaveQuizRequest struct {
	Questions []models.QuizQuestion `json:"questions" validate:"required,min=1,dive"`
}

type SubmitQuizRequest struct {
	Answers []*string `json:"answers"`
}

// SaveQuiz replaces the quiz embedded in the course.
func (qc *QuizController) SaveQuiz(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	var req SaveQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationError(c, errs)
	}
	if errs := services.ValidateQuiz(req.Questions); errs != nil {
		return utils.ValidationError(c, errs)
	}

	course, err := services.FindCourse(qc.DB, id)
	if err != nil {
		return serviceError(c, qc.Log, err)
	}
	course.Quiz = datatypes.JSONSlice[models.QuizQuestion](req.Questions)
	if err := qc.DB.Model(course).Update("quiz", course.Quiz).Error; err != nil {
		qc.Log.Error("save quiz failed", "course_id", id, "error", err)
		return utils.InternalServerError(c, "Could not save quiz")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id": course.ID,
		"questions": course.Quiz,
	})
}

func (qc *QuizController) AdminGetQuiz(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, err := services.FindCourse(qc.DB, id)
	if err != nil {
		return serviceError(c, qc.Log, err)
	}
	questions := course.Quiz
	if questions == nil {
		questions = datatypes.JSONSlice[models.QuizQuestion]{}
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id": course.ID,
		"questions": questions,
	})
}

// GetQuiz is the learner view: no correct answers, enrolled callers only.
func (qc *QuizController) GetQuiz(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, err := services.FindCourse(qc.DB, id)
	if err != nil {
		return serviceError(c, qc.Log, err)
	}
	enrolled, err := services.IsEnrolled(qc.DB, utils.CurrentUserID(c), id)
	if err != nil {
		return serviceError(c, qc.Log, err)
	}
	if !enrolled {
		return serviceError(c, qc.Log, services.ErrNotEnrolled)
	}
	if len(course.Quiz) == 0 {
		return serviceError(c, qc.Log, services.ErrEmptyQuiz)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id": course.ID,
		"name":      course.Name,
		"questions": services.LearnerQuiz(course.Quiz),
	})
}

// SubmitQuiz godoc
// @Summary Submit quiz answers
// @Description Answers are compared by position; null or missing answers are wrong
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body SubmitQuizRequest true "Answers"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/quiz/submit [post]
func (qc *QuizController) SubmitQuiz(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	var req SubmitQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	course, err := services.FindCourse(qc.DB, id)
	if err != nil {
		return serviceError(c, qc.Log, err)
	}

	userID := utils.CurrentUserID(c)
	result, err := services.SubmitQuiz(qc.DB, userID, course, req.Answers)
	if err != nil {
		return serviceError(c, qc.Log, err)
	}
	qc.Log.Info("quiz submitted", "user_id", userID, "course_id", id, "score", result.Score, "total", result.Total)
	return utils.Success(c, fiber.StatusOK, result)
}

func (qc *QuizController) GetSubmissions(c *fiber.Ctx) error {
	subs, err := services.Submissions(qc.DB, utils.CurrentUserID(c))
	if err != nil {
		return serviceError(c, qc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, subs)
}
