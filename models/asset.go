package models

import "time"

// Asset types with a live market price. All other types are valued at buy price.
const (
	AssetCrypto     = "crypto"
	AssetStock      = "stock"
	AssetMutualFund = "mutual_fund"
	AssetCash       = "cash"
)

// Asset represents a holding owned by a user (e.g. 0.5 BTC bought at 30000).
type Asset struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint      `gorm:"index;not null"`
	Name      string    `gorm:"size:255;index"`
	Symbol    string    `gorm:"size:32;index"`
	Quantity  float64   `gorm:"not null"`
	BuyPrice  float64   `gorm:"not null"`
	BuyDate   time.Time `gorm:"not null"`
	Type      string    `gorm:"size:32;default:crypto"`
}
