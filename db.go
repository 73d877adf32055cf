package main

import (
	"log"
	"os"
	"strings"

	"wealthify/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		migrateModels(db)
	}
	seedDB()
}

// migrateModels runs AutoMigrate model by model so a failure on one doesn't
// block the others. Users migrate first so FK-bearing tables can reference it.
func migrateModels(g *gorm.DB) {
	if err := g.AutoMigrate(&models.User{}); err != nil {
		logger.Warn().Err(err).Msg("migration warning (users)")
	}
	if err := g.AutoMigrate(&models.Transaction{}); err != nil {
		logger.Warn().Err(err).Msg("migration warning (transactions)")
	}
	if err := g.AutoMigrate(&models.Expense{}); err != nil {
		logger.Warn().Err(err).Msg("migration warning (expenses)")
	}
	if err := g.AutoMigrate(&models.Asset{}); err != nil {
		logger.Warn().Err(err).Msg("migration warning (assets)")
	}
	if err := g.AutoMigrate(&models.PortfolioSnapshot{}); err != nil {
		logger.Warn().Err(err).Msg("migration warning (portfolio_snapshots)")
	}
	if err := g.AutoMigrate(&models.SweepRun{}); err != nil {
		logger.Warn().Err(err).Msg("migration warning (sweep_runs)")
	}
	if err := g.AutoMigrate(&models.Feedback{}); err != nil {
		logger.Warn().Err(err).Msg("migration warning (feedbacks)")
	}
}

func seedDB() {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin := models.User{
			Username:     "admin",
			Email:        "admin@example.com",
			PasswordHash: hashedPassword,
			IsAdmin:      true,
		}
		db.Create(&admin)
		logger.Info().Msg("seeded admin user: username=admin, password=admin123")
	}
}
