package services

import (
	"fmt"
	"time"

	"learnify/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// RecordSession adds the time between startedAt and now to today's usage
// row and returns the hours added.
func RecordSession(db *gorm.DB, userID uint, startedAt, now time.Time) (float64, error) {
	d := now.Sub(startedAt)
	if d < 0 || d > 24*time.Hour {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSession, d)
	}
	hours := d.Hours()

	row := models.DailyUsage{UserID: userID, Date: now.Format(dateLayout), HoursSpent: hours}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"hours_spent": gorm.Expr("daily_usages.hours_spent + ?", hours),
			"updated_at":  now,
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("record usage: %w", err)
	}
	return hours, nil
}

// ParseMonth accepts YYYY-MM; an empty value means the month of now.
func ParseMonth(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	}
	m, err := time.ParseInLocation(monthLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("month must be YYYY-MM: %w", err)
	}
	return m, nil
}

// MonthDays lists every date of month as YYYY-MM-DD.
func MonthDays(month time.Time) []string {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	var days []string
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dateLayout))
	}
	return days
}

// MonthUsage returns hours per day for every day of month, 0 when unrecorded.
func MonthUsage(db *gorm.DB, userID uint, month time.Time) (map[string]float64, error) {
	days := MonthDays(month)
	var rows []models.DailyUsage
	err := db.Where("user_id = ? AND date >= ? AND date <= ?", userID, days[0], days[len(days)-1]).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load usage: %w", err)
	}

	out := make(map[string]float64, len(days))
	for _, d := range days {
		out[d] = 0
	}
	for _, r := range rows {
		out[r.Date] = r.HoursSpent
	}
	return out, nil
}
