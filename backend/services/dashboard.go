package services

import (
	"fmt"
	"sort"
	"time"

	"learnify/backend/models"

	"gorm.io/gorm"
)

// RegistrationsPerDay counts users by registration date, oldest day first.
// Users without a registration date fall back to their creation time.
func RegistrationsPerDay(users []models.User) []models.RegistrationCount {
	counts := map[string]int{}
	for _, u := range users {
		at := u.RegistrationDate
		if at.IsZero() {
			at = u.CreatedAt
		}
		counts[at.Format(dateLayout)]++
	}
	out := make([]models.RegistrationCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, models.RegistrationCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SplitCatalog separates courses the user is enrolled in from the rest.
func SplitCatalog(all []models.Course, enrolledIDs []uint) (enrolled, others []models.Course) {
	set := make(map[uint]bool, len(enrolledIDs))
	for _, id := range enrolledIDs {
		set[id] = true
	}
	enrolled, others = []models.Course{}, []models.Course{}
	for _, c := range all {
		if set[c.ID] {
			enrolled = append(enrolled, c)
		} else {
			others = append(others, c)
		}
	}
	return enrolled, others
}

// LoginDays counts the distinct days since the given time on which the user
// logged in. Login times are stored in UTC.
func LoginDays(db *gorm.DB, userID uint, since time.Time) (int, error) {
	var logins []models.LoginHistory
	if err := db.Select("login_time").Where("user_id = ? AND login_time >= ?", userID, since.UTC()).Find(&logins).Error; err != nil {
		return 0, fmt.Errorf("load login history: %w", err)
	}
	days := map[string]bool{}
	for _, l := range logins {
		days[l.LoginTime.In(since.Location()).Format(dateLayout)] = true
	}
	return len(days), nil
}
