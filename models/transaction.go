package models

import "time"

// Transaction types. Anything else is rejected at the HTTP layer.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction represents a single manually logged income or expense entry.
// Entries are immutable once created; there is no update or delete path.
type Transaction struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UserID      uint      `gorm:"index;not null"`
	Type        string    `gorm:"size:16;not null"`
	Description string    `gorm:"size:255;not null"`
	Amount      float64   `gorm:"not null"`
	Category    string    `gorm:"size:64;not null"`
	Date        time.Time `gorm:"index;not null"` // calendar day, midnight UTC
}
