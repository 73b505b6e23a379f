package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/services"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CertificatesController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Renderer *services.CertificateRenderer
	Log      *utils.Logger
}

func NewCertificatesController(db *gorm.DB, cfg *config.Config, renderer *services.CertificateRenderer, log *utils.Logger) *CertificatesController {
	return &CertificatesController{DB: db, Cfg: cfg, Renderer: renderer, Log: log.With("controller", "certificates")}
}

// ListCertificates returns the enrolled courses the caller has completed.
func (cc *CertificatesController) ListCertificates(c *fiber.Ctx) error {
	progress, err := services.ProgressForUser(cc.DB, utils.CurrentUserID(c))
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, services.CompletedCourses(progress))
}

func (cc *CertificatesController) DownloadCertificate(c *fiber.Ctx) error {
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	userID := utils.CurrentUserID(c)

	var user models.User
	if err := cc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	course, err := services.FindCourse(cc.DB, courseID)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	enrolled, err := services.IsEnrolled(cc.DB, userID, courseID)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	completed, err := services.CompletedLectures(cc.DB, userID, courseID)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	if !enrolled || !services.NewCourseProgress(course, completed).Complete() {
		return serviceError(c, cc.Log, services.ErrNotEligible)
	}

	var buf bytes.Buffer
	err = cc.Renderer.Render(&buf, services.CertificateData{
		Learner:  user.DisplayName(),
		Course:   course.Name,
		IssuedAt: time.Now(),
	})
	if err != nil {
		cc.Log.Error("render certificate failed", "course_id", courseID, "error", err)
		return utils.InternalServerError(c, "Could not render certificate")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, services.CertificateFilename(course.Name)))
	return c.Send(buf.Bytes())
}
