package controllers

import (
	"errors"
	"strings"
	"time"

	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Log: log.With("controller", "auth")}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

func userPayload(u *models.User) fiber.Map {
	return fiber.Map{
		"id":              u.ID,
		"email":           u.Email,
		"name":            u.Name,
		"role":            u.Role,
		"profile_picture": u.ProfilePicture,
	}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationError(c, errs)
	}
	if req.Role == "" {
		req.Role = models.RoleLearner
	}

	var count int64
	if err := ac.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		ac.Log.Error("lookup user failed", "error", err)
		return utils.InternalServerError(c, "Could not query database")
	}
	if count > 0 {
		return utils.Conflict(c, "Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Email:            req.Email,
		PasswordHash:     string(hashedPassword),
		Role:             req.Role,
		Name:             strings.TrimSpace(req.Name),
		RegistrationDate: time.Now(),
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		ac.Log.Error("create user failed", "error", err)
		return utils.InternalServerError(c, "Could not create user")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	ac.Log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return utils.Created(c, fiber.Map{
		"token": token,
		"user":  userPayload(&user),
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var user models.User
	if err := ac.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid credentials")
	}
	if req.Role != "" && req.Role != user.Role {
		return utils.Forbidden(c, "Incorrect role selected for this account")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	now := time.Now().UTC()
	if err := ac.DB.Create(&models.LoginHistory{UserID: user.ID, LoginTime: now}).Error; err != nil {
		ac.Log.Warn("record login failed", "user_id", user.ID, "error", err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token":    token,
		"user":     userPayload(&user),
		"login_at": now.Format(time.RFC3339),
	})
}

// Me resolves the identity behind the current token.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	var user models.User
	if err := ac.DB.First(&user, utils.CurrentUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, userPayload(&user))
}
