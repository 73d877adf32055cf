package models

import "time"

// Feedback is a free-form message submitted by a user.
type Feedback struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"index;not null"`
	Message   string `gorm:"size:2048;not null"`
}
