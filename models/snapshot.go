package models

import "time"

// PortfolioSnapshot is a point-in-time record of a user's total portfolio
// value. Rows are append-only: the recorder inserts, nothing updates or
// deletes them, and history reads order by timestamp ascending.
type PortfolioSnapshot struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Value     float64   `gorm:"not null"`
	Timestamp time.Time `gorm:"index;not null"`
}

// SweepRun records when the daily all-users snapshot sweep last completed,
// so a restart can catch up a missed run instead of silently skipping it.
type SweepRun struct {
	ID    uint      `gorm:"primaryKey"`
	RanAt time.Time `gorm:"index;not null"`
}
