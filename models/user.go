package models

import (
	"time"
)

// User model
type User struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Username     string   `gorm:"size:255;not null;unique"`
	Email        string   `gorm:"size:255;not null;unique"`
	PasswordHash []byte   `gorm:"not null"`
	SavingsGoal  *float64 // nil means the default goal applies
	IsAdmin      bool     `gorm:"default:false"`
	Transactions []Transaction
	Assets       []Asset             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Snapshots    []PortfolioSnapshot `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
