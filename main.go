package main

import (
	"fmt"
	"os"

	"wealthify/pkg/marketdata"
	"wealthify/pkg/predict"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

// collaborators wired at startup; tests substitute fakes
var (
	mailer        Mailer
	expenseScorer predict.Scorer
	savingsScorer predict.Scorer
)

func main() {
	// load ./.env if present before reading vars; already-set vars win
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./wealthify migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	priceOracle = marketdata.NewClient()
	mailer = newSMTPMailer()
	if modelServer := os.Getenv("MODEL_SERVER_URL"); modelServer != "" {
		expenseScorer = predict.NewHTTPScorer(modelServer, "expense")
		savingsScorer = predict.NewHTTPScorer(modelServer, "savings")
	} else {
		logger.Warn().Msg("MODEL_SERVER_URL not set, prediction endpoints disabled")
	}

	sched := startScheduler(db)
	defer sched.Stop()

	r := gin.Default()

	setupRoutes(r)

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	r.Run(addr)
}
