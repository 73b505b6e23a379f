package services

import (
	"errors"
	"fmt"
	"time"

	"learnify/backend/models"

	"gorm.io/gorm"
)

const timeLayout = "15:04"

// ScheduleTimestamp combines a YYYY-MM-DD date and HH:MM time in loc.
func ScheduleTimestamp(date, clock string, loc *time.Location) (time.Time, error) {
	ts, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	return ts, nil
}

func ListNotifications(db *gorm.DB, userID uint) ([]models.Notification, error) {
	var out []models.Notification
	if err := db.Where("user_id = ?", userID).Order("timestamp, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func CreateNotification(db *gorm.DB, userID uint, text, date, clock string, loc *time.Location) (*models.Notification, error) {
	ts, err := ScheduleTimestamp(date, clock, loc)
	if err != nil {
		return nil, err
	}
	n := models.Notification{UserID: userID, Text: text, Date: date, Time: clock, Timestamp: ts.UTC()}
	if err := db.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return &n, nil
}

// FindNotification hides other users' notifications behind ErrNotificationNotFound.
func FindNotification(db *gorm.DB, userID, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("load notification: %w", err)
	}
	return &n, nil
}

func UpdateNotification(db *gorm.DB, userID, id uint, text, date, clock string, loc *time.Location) (*models.Notification, error) {
	n, err := FindNotification(db, userID, id)
	if err != nil {
		return nil, err
	}
	ts, err := ScheduleTimestamp(date, clock, loc)
	if err != nil {
		return nil, err
	}
	n.Text, n.Date, n.Time, n.Timestamp = text, date, clock, ts.UTC()
	if err := db.Save(n).Error; err != nil {
		return nil, fmt.Errorf("update notification: %w", err)
	}
	return n, nil
}

func DeleteNotification(db *gorm.DB, userID, id uint) error {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return fmt.Errorf("delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DueNotifications returns notifications whose timestamp is not after now.
// Timestamps are stored in UTC.
func DueNotifications(db *gorm.DB, now time.Time, limit int) ([]models.Notification, error) {
	var out []models.Notification
	q := db.Where("timestamp <= ?", now.UTC()).Order("timestamp, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load due notifications: %w", err)
	}
	return out, nil
}
