package middleware

import (
	"fmt"
	"time"

	"learnify/backend/utils"

	"github.com/fatih/color"
	"github.com/gofiber/fiber/v2"
)

// LoggingMiddleware writes one line per request with a colored status.
func LoggingMiddleware(logger *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// let the app error handler set the final status before logging
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		kv := []interface{}{
			"ip", c.IP(),
			"latency", time.Since(start).String(),
		}
		if uid := utils.CurrentUserID(c); uid != 0 {
			kv = append(kv, "user_id", uid)
		}
		if err != nil {
			kv = append(kv, "error", err.Error())
		}

		line := fmt.Sprintf("%s %s %s", methodColor(c.Method()), c.Path(), statusColor(status))
		switch {
		case status >= 500:
			logger.Error(line, kv...)
		case status >= 400:
			logger.Warn(line, kv...)
		default:
			logger.Info(line, kv...)
		}
		return nil
	}
}

func statusColor(status int) string {
	s := fmt.Sprint(status)
	switch {
	case status >= 500:
		return color.RedString(s)
	case status >= 400:
		return color.YellowString(s)
	case status >= 300:
		return color.CyanString(s)
	default:
		return color.GreenString(s)
	}
}

func methodColor(method string) string {
	switch method {
	case fiber.MethodGet:
		return color.BlueString(method)
	case fiber.MethodPost:
		return color.YellowString(method)
	case fiber.MethodPut:
		return color.CyanString(method)
	case fiber.MethodDelete:
		return color.RedString(method)
	default:
		return color.WhiteString(method)
	}
}
