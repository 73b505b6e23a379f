package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"time"

	"learnify/backend/services"
	"learnify/backend/storage"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}

// serviceError maps domain errors to responses and logs everything else.
func serviceError(c *fiber.Ctx, log *utils.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		return utils.NotFound(c, "Course not found")
	case errors.Is(err, services.ErrNotificationNotFound):
		return utils.NotFound(c, "Notification not found")
	case errors.Is(err, services.ErrNotEnrolled):
		return utils.Forbidden(c, "You are not enrolled in this course")
	case errors.Is(err, services.ErrLectureOutOfRange):
		return utils.BadRequest(c, "Lecture number out of range")
	case errors.Is(err, services.ErrEmptyQuiz):
		return utils.NotFound(c, "This course has no quiz")
	case errors.Is(err, services.ErrNotEligible):
		return utils.Forbidden(c, "Complete every lecture to unlock the certificate")
	case errors.Is(err, services.ErrTooManyLectures):
		return utils.BadRequest(c, "More files than declared lectures")
	case errors.Is(err, services.ErrInvalidSchedule):
		return utils.ValidationError(c, map[string]string{"date": "date must be YYYY-MM-DD and time HH:MM"})
	case errors.Is(err, services.ErrInvalidSession):
		return utils.ValidationError(c, map[string]string{"started_at": "session must be between 0 and 24 hours long"})
	}
	log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return utils.InternalServerError(c, "Could not process request")
}

// uploadFile stores fh under folder/<ms>_<name> and returns its URL.
func uploadFile(ctx context.Context, store storage.Store, fh *multipart.FileHeader, folder string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()
	return store.Put(ctx, storage.ObjectKey(folder, fh.Filename, time.Now()), f)
}

// deleteByURL removes the blob behind a URL issued by store. URLs the
// store does not recognise are left alone.
func deleteByURL(ctx context.Context, store storage.Store, url string) error {
	key, ok := store.KeyFromURL(url)
	if !ok {
		return nil
	}
	return store.Delete(ctx, key)
}
