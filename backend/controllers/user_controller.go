package controllers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/services"
	"learnify/backend/storage"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store storage.Store
	Log   *utils.Logger
}

func NewUserController(db *gorm.DB, cfg *config.Config, store storage.Store, log *utils.Logger) *UserController {
	return &UserController{DB: db, Cfg: cfg, Store: store, Log: log.With("controller", "user")}
}

type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=120"`
	Age       *string `json:"age" validate:"omitempty,max=3"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	Education *string `json:"education" validate:"omitempty,max=255"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func profilePayload(u *models.User) fiber.Map {
	return fiber.Map{
		"id":                u.ID,
		"email":             u.Email,
		"role":              u.Role,
		"name":              u.Name,
		"age":               u.Age,
		"phone":             u.Phone,
		"address":           u.Address,
		"education":         u.Education,
		"profile_picture":   u.ProfilePicture,
		"registration_date": u.RegistrationDate,
	}
}

func (uc *UserController) currentUser(c *fiber.Ctx) (*models.User, error) {
	var user models.User
	if err := uc.DB.First(&user, utils.CurrentUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "User not found")
		}
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	return &user, nil
}

// GetProfile godoc
// @Summary Get user profile
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user, err := uc.currentUser(c)
	if user == nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, profilePayload(user))
}

// UpdateProfile changes only the fields present in the body.
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationError(c, errs)
	}

	user, err := uc.currentUser(c)
	if user == nil {
		return err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&user.Name, req.Name)
	set(&user.Age, req.Age)
	set(&user.Phone, req.Phone)
	set(&user.Address, req.Address)
	set(&user.Education, req.Education)

	if err := uc.DB.Save(user).Error; err != nil {
		uc.Log.Error("update profile failed", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Could not update profile")
	}
	return utils.Success(c, fiber.StatusOK, profilePayload(user))
}

func (uc *UserController) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationError(c, errs)
	}

	user, err := uc.currentUser(c)
	if user == nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return utils.Unauthorized(c, "Old password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}
	if err := uc.DB.Model(user).Update("password_hash", string(hashed)).Error; err != nil {
		return utils.InternalServerError(c, "Could not update password")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Password updated"})
}

// UploadProfilePicture stores the picture at profilePictures/<uid>,
// overwriting the previous one.
func (uc *UserController) UploadProfilePicture(c *fiber.Ctx) error {
	fh, err := c.FormFile("picture")
	if err != nil {
		return utils.BadRequest(c, "picture file is required")
	}
	user, err := uc.currentUser(c)
	if user == nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return utils.BadRequest(c, "Could not read upload")
	}
	raw, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return utils.BadRequest(c, "Could not read upload")
	}

	img, err := services.ProcessProfilePicture(raw, services.ProfilePictureSize)
	if err != nil {
		return utils.ValidationError(c, map[string]string{"picture": "picture must be a PNG, JPEG, GIF or WebP image"})
	}

	key := fmt.Sprintf("%s/%d", storage.FolderProfilePictures, user.ID)
	url, err := uc.Store.Put(c.UserContext(), key, img)
	if err != nil {
		uc.Log.Error("upload profile picture failed", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Could not upload picture")
	}
	if err := uc.DB.Model(user).Update("profile_picture", url).Error; err != nil {
		return utils.InternalServerError(c, "Could not update profile")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"profile_picture": url})
}
