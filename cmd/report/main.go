package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"wealthify/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Prints a month-bounded income/expense report for one user, optionally
// listing the matching transactions. Month is YYYY-MM, bounds are UTC.
func main() {
	username := flag.String("username", "", "username to report on")
	month := flag.String("month", "", "month to report, YYYY-MM")
	list := flag.Bool("list", false, "also list the matching transactions")
	flag.Parse()
	if *username == "" || *month == "" {
		log.Fatal("--username and --month are required")
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	var user models.User
	if err := gdb.Where("username = ?", *username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	t, err := time.Parse("2006-01", *month)
	if err != nil {
		log.Fatalf("invalid month format, expected YYYY-MM: %v", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	totals := map[string]float64{}
	for _, txType := range []string{models.TransactionIncome, models.TransactionExpense} {
		var total float64
		if err := gdb.Model(&models.Transaction{}).
			Where("user_id = ? AND type = ? AND date >= ? AND date < ?", user.ID, txType, start, end).
			Select("COALESCE(SUM(amount),0)").Scan(&total).Error; err != nil {
			log.Fatalf("query failed: %v", err)
		}
		totals[txType] = total
	}

	fmt.Printf("Report for user=%s month=%s (UTC):\n", user.Username, *month)
	fmt.Printf("  income=%.2f expenses=%.2f net=%.2f\n",
		totals[models.TransactionIncome], totals[models.TransactionExpense],
		totals[models.TransactionIncome]-totals[models.TransactionExpense])

	if *list {
		var rows []models.Transaction
		if err := gdb.Where("user_id = ? AND date >= ? AND date < ?", user.ID, start, end).
			Order("date, id").Find(&rows).Error; err != nil {
			log.Fatalf("fetch rows failed: %v", err)
		}
		for _, r := range rows {
			fmt.Printf("%d|%s|%s|%.2f|%s|%s\n", r.ID, r.Type, r.Category, r.Amount,
				r.Date.Format("2006-01-02"), r.Description)
		}
	}
}
