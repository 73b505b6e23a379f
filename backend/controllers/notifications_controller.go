package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"learnify/backend/config"
	"learnify/backend/notify"
	"learnify/backend/services"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"
)

const streamHeartbeat = 20 * time.Second

type NotificationsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Hub *notify.Hub
	Log *utils.Logger
	// Location is used to turn date and time into a timestamp.
	Location *time.Location
	// Shutdown ends open streams when the server stops.
	Shutdown  context.Context
	Heartbeat time.Duration
}

func NewNotificationsController(db *gorm.DB, cfg *config.Config, hub *notify.Hub, shutdown context.Context, log *utils.Logger) *NotificationsController {
	return &NotificationsController{
		DB:        db,
		Cfg:       cfg,
		Hub:       hub,
		Log:       log.With("controller", "notifications"),
		Location:  time.Local,
		Shutdown:  shutdown,
		Heartbeat: streamHeartbeat,
	}
}

type NotificationRequest struct {
	Text string `json:"text" validate:"required,notblank,max=500"`
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

func (nc *NotificationsController) parse(c *fiber.Ctx) (*NotificationRequest, error) {
	var req NotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, utils.ValidationError(c, errs)
	}
	return &req, nil
}

func (nc *NotificationsController) List(c *fiber.Ctx) error {
	list, err := services.ListNotifications(nc.DB, utils.CurrentUserID(c))
	if err != nil {
		return serviceError(c, nc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, list)
}

func (nc *NotificationsController) Create(c *fiber.Ctx) error {
	req, err := nc.parse(c)
	if req == nil {
		return err
	}
	n, err := services.CreateNotification(nc.DB, utils.CurrentUserID(c), req.Text, req.Date, req.Time, nc.Location)
	if err != nil {
		return serviceError(c, nc.Log, err)
	}
	return utils.Created(c, n)
}

func (nc *NotificationsController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid notification ID")
	}
	req, err := nc.parse(c)
	if req == nil {
		return err
	}
	n, err := services.UpdateNotification(nc.DB, utils.CurrentUserID(c), id, req.Text, req.Date, req.Time, nc.Location)
	if err != nil {
		return serviceError(c, nc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, n)
}

func (nc *NotificationsController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid notification ID")
	}
	if err := services.DeleteNotification(nc.DB, utils.CurrentUserID(c), id); err != nil {
		return serviceError(c, nc.Log, err)
	}
	return utils.NoContent(c)
}

// Stream godoc
// @Summary Subscribe to delivered notifications
// @Description Server-Sent Events; each delivery is an "event: notification" frame
// @Tags notifications
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Router /notifications/stream [get]
func (nc *NotificationsController) Stream(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)
	client := nc.Hub.Subscribe(userID)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer nc.Hub.Unsubscribe(client)
		if err := writeEvents(nc.Shutdown, w, client, nc.Heartbeat); err != nil {
			nc.Log.Debug("stream closed", "client_id", client.ID, "error", err)
		}
	}))
	return nil
}

// writeEvents copies events from the client to w until ctx ends or the
// peer goes away.
func writeEvents(ctx context.Context, w *bufio.Writer, client *notify.Client, heartbeat time.Duration) error {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-client.Outbound:
			data, err := json.Marshal(ev.Data)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Name, data); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
