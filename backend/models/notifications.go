package models

import "time"

type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Text      string    `gorm:"not null" json:"text"`
	Date      string    `gorm:"size:10" json:"date"` // YYYY-MM-DD
	Time      string    `gorm:"size:5" json:"time"`  // HH:MM
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
