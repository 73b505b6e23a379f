package notify

import (
	"context"
	"fmt"
	"time"

	"learnify/backend/models"
	"learnify/backend/services"
	"learnify/backend/utils"

	"gorm.io/gorm"
)

const dispatchBatch = 100

// Dispatcher delivers due notifications and removes them once sent.
type Dispatcher struct {
	db       *gorm.DB
	pub      Publisher
	mailer   Mailer
	log      *utils.Logger
	interval time.Duration
}

func NewDispatcher(db *gorm.DB, pub Publisher, mailer Mailer, interval time.Duration, log *utils.Logger) *Dispatcher {
	if mailer == nil {
		mailer = NopMailer{}
	}
	return &Dispatcher{
		db:       db,
		pub:      pub,
		mailer:   mailer,
		log:      log.With("component", "NotificationDispatcher"),
		interval: interval,
	}
}

// RunOnce delivers every notification due at now and returns how many were
// removed. A notification stays for a later pass until it reached an open
// stream or its reminder mail went out; a failed publish also keeps it.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) (int, error) {
	due, err := services.DueNotifications(d.db, now, dispatchBatch)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	users, err := d.recipients(due)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, n := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		streams, err := d.pub.Publish(ctx, NewNotificationEvent(n, now))
		if err != nil {
			d.log.Warn("publish notification failed", "notification_id", n.ID, "error", err)
			continue
		}
		mailed := d.mail(ctx, users[n.UserID], n)
		if streams == 0 && !mailed {
			continue
		}
		if err := d.remove(ctx, n.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Acknowledge removes the notification carried by ev once a stream got it.
func (d *Dispatcher) Acknowledge(ctx context.Context, ev Event) error {
	return d.remove(ctx, ev.Data.ID)
}

func (d *Dispatcher) remove(ctx context.Context, id uint) error {
	if err := d.db.WithContext(ctx).Delete(&models.Notification{}, id).Error; err != nil {
		return fmt.Errorf("delete delivered notification %d: %w", id, err)
	}
	return nil
}

// mail reports whether a reminder actually went out.
func (d *Dispatcher) mail(ctx context.Context, u models.User, n models.Notification) bool {
	if _, nop := d.mailer.(NopMailer); nop || u.Email == "" {
		return false
	}
	if err := d.mailer.Send(ctx, u.DisplayName(), u.Email, "Reminder", n.Text); err != nil {
		d.log.Warn("reminder mail failed", "notification_id", n.ID, "error", err)
		return false
	}
	return true
}

func (d *Dispatcher) recipients(due []models.Notification) (map[uint]models.User, error) {
	ids := make([]uint, 0, len(due))
	for _, n := range due {
		ids = append(ids, n.UserID)
	}
	var users []models.User
	if err := d.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	out := make(map[uint]models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("dispatcher started", "interval", d.interval.String())
	for {
		if n, err := d.RunOnce(ctx, time.Now()); err != nil {
			d.log.Error("dispatch pass failed", "error", err)
		} else if n > 0 {
			d.log.Info("notifications delivered", "count", n)
		}

		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopped")
			return
		case <-ticker.C:
		}
	}
}
