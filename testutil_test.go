package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wealthify/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB opens a fresh in-memory SQLite database, migrates the schema and
// points the package-global db at it so handlers run against it too.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	g, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	migrateModels(g)
	db = g
	return g
}

// stubOracle maps asset symbols to fixed prices; missing symbols price at 0,
// mimicking a failed lookup.
type stubOracle struct {
	prices map[string]float64
	calls  int
}

func (s *stubOracle) FetchPrice(ctx context.Context, symbol, assetType string) float64 {
	s.calls++
	return s.prices[symbol]
}

func useStubOracle(t *testing.T, prices map[string]float64) *stubOracle {
	t.Helper()
	s := &stubOracle{prices: prices}
	prev := priceOracle
	priceOracle = s
	t.Cleanup(func() { priceOracle = prev })
	return s
}

// recordingMailer captures outgoing reset emails instead of sending them.
type recordingMailer struct {
	to, url string
}

func (m *recordingMailer) SendPasswordReset(to, resetURL string) error {
	m.to, m.url = to, resetURL
	return nil
}

func createTestUser(t *testing.T, g *gorm.DB, username string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashed,
	}
	if err := g.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func addTransaction(t *testing.T, g *gorm.DB, userID uint, txType, category string, amount float64, date time.Time) {
	t.Helper()
	tx := models.Transaction{
		UserID:      userID,
		Type:        txType,
		Description: category,
		Amount:      amount,
		Category:    category,
		Date:        date,
	}
	if err := g.Create(&tx).Error; err != nil {
		t.Fatalf("create transaction: %v", err)
	}
}

func addAsset(t *testing.T, g *gorm.DB, userID uint, symbol, assetType string, quantity, buyPrice float64) models.Asset {
	t.Helper()
	a := models.Asset{
		UserID:   userID,
		Name:     symbol,
		Symbol:   symbol,
		Quantity: quantity,
		BuyPrice: buyPrice,
		BuyDate:  time.Now().AddDate(0, -1, 0),
		Type:     assetType,
	}
	if err := g.Create(&a).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return a
}

func approxEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
