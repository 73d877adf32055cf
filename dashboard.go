package main

import (
	"errors"
	"fmt"
	"math"
	"time"

	"wealthify/models"

	"gorm.io/gorm"
)

// ErrUserNotFound maps to a 404 at the HTTP layer.
var ErrUserNotFound = errors.New("user not found")

const defaultSavingsGoal = 10000.0

// SavingsPolicy derives "current savings" from the all-time balance. The
// default is a flat 20%-of-balance heuristic; it is a package variable so a
// real savings ledger can replace it without touching the aggregator.
type SavingsPolicy func(totalBalance float64) float64

var currentSavingsPolicy SavingsPolicy = func(totalBalance float64) float64 {
	return math.Max(0, totalBalance*0.20)
}

// FinancialSummary is the month-over-month headline block of the dashboard.
// It is recomputed on every request, never cached.
type FinancialSummary struct {
	TotalBalance      float64 `json:"total_balance"`
	MonthlyIncome     float64 `json:"monthly_income"`
	MonthlyExpenses   float64 `json:"monthly_expenses"`
	SavingsGoal       float64 `json:"savings_goal"`
	CurrentSavings    float64 `json:"current_savings"`
	LastMonthBalance  float64 `json:"last_month_balance"`
	LastMonthIncome   float64 `json:"last_month_income"`
	LastMonthExpenses float64 `json:"last_month_expenses"`
}

// SpendingCategory is one slice of the current month's expense breakdown.
type SpendingCategory struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// TransactionResponse is the wire form of a transaction.
type TransactionResponse struct {
	ID          uint    `json:"id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"created_at"`
}

// DashboardData is the full dashboard payload.
type DashboardData struct {
	Summary            FinancialSummary      `json:"summary"`
	RecentTransactions []TransactionResponse `json:"recent_transactions"`
	SpendingCategories []SpendingCategory    `json:"spending_categories"`
}

const dateLayout = "2006-01-02"

func toTransactionResponse(t models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Type:        t.Type,
		Description: t.Description,
		Amount:      t.Amount,
		Category:    t.Category,
		Date:        t.Date.Format(dateLayout),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// monthBounds returns the half-open [start, next) range covering the whole
// calendar month containing t. Bounds are anchored in UTC because transaction
// dates are stored at UTC midnight; anchoring in the server's local zone would
// push day-1 rows into the previous month on servers west of UTC.
func monthBounds(t time.Time) (start, next time.Time) {
	t = t.In(time.UTC)
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// sumTransactions totals amounts of one transaction type for a user, optionally
// bounded to a [start, next) date range. Missing rows sum to 0, not an error.
func sumTransactions(g *gorm.DB, userID uint, txType string, start, next *time.Time) (float64, error) {
	var total float64
	q := g.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", userID, txType).
		Select("COALESCE(SUM(amount), 0)")
	if start != nil && next != nil {
		q = q.Where("date >= ? AND date < ?", *start, *next)
	}
	if err := q.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum %s transactions: %w", txType, err)
	}
	return total, nil
}

// spendingByCategory groups the month's expense transactions by category and
// computes each category's share of the month total, rounded to one decimal.
// A zero month total yields zero percentages rather than a division error.
func spendingByCategory(g *gorm.DB, userID uint, start, next time.Time) ([]SpendingCategory, error) {
	type row struct {
		Category string
		Total    float64
	}
	var rows []row
	err := g.Model(&models.Transaction{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type = ? AND date >= ? AND date < ?",
			userID, models.TransactionExpense, start, next).
		Group("category").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("group expenses by category: %w", err)
	}

	monthTotal := 0.0
	for _, r := range rows {
		monthTotal += r.Total
	}
	categories := make([]SpendingCategory, 0, len(rows))
	for _, r := range rows {
		pct := 0.0
		if monthTotal > 0 {
			pct = math.Round(r.Total/monthTotal*1000) / 10
		}
		categories = append(categories, SpendingCategory{
			Category:   r.Category,
			Amount:     r.Total,
			Percentage: pct,
		})
	}
	return categories, nil
}

// computeDashboard assembles the financial summary, recent transactions and
// spending breakdown for one user. now anchors the current calendar month.
func computeDashboard(g *gorm.DB, userID uint, now time.Time) (DashboardData, error) {
	var user models.User
	if err := g.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DashboardData{}, ErrUserNotFound
		}
		return DashboardData{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	var recent []models.Transaction
	if err := g.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(5).Find(&recent).Error; err != nil {
		return DashboardData{}, fmt.Errorf("recent transactions: %w", err)
	}

	curStart, curNext := monthBounds(now)
	lastStart, lastNext := monthBounds(curStart.AddDate(0, 0, -1))

	monthlyIncome, err := sumTransactions(g, userID, models.TransactionIncome, &curStart, &curNext)
	if err != nil {
		return DashboardData{}, err
	}
	monthlyExpenses, err := sumTransactions(g, userID, models.TransactionExpense, &curStart, &curNext)
	if err != nil {
		return DashboardData{}, err
	}
	totalIncome, err := sumTransactions(g, userID, models.TransactionIncome, nil, nil)
	if err != nil {
		return DashboardData{}, err
	}
	totalExpenses, err := sumTransactions(g, userID, models.TransactionExpense, nil, nil)
	if err != nil {
		return DashboardData{}, err
	}
	lastMonthIncome, err := sumTransactions(g, userID, models.TransactionIncome, &lastStart, &lastNext)
	if err != nil {
		return DashboardData{}, err
	}
	lastMonthExpenses, err := sumTransactions(g, userID, models.TransactionExpense, &lastStart, &lastNext)
	if err != nil {
		return DashboardData{}, err
	}

	totalBalance := totalIncome - totalExpenses

	savingsGoal := defaultSavingsGoal
	if user.SavingsGoal != nil {
		savingsGoal = *user.SavingsGoal
	}

	categories, err := spendingByCategory(g, userID, curStart, curNext)
	if err != nil {
		return DashboardData{}, err
	}

	recentResponses := make([]TransactionResponse, 0, len(recent))
	for _, t := range recent {
		recentResponses = append(recentResponses, toTransactionResponse(t))
	}

	return DashboardData{
		Summary: FinancialSummary{
			TotalBalance:      totalBalance,
			MonthlyIncome:     monthlyIncome,
			MonthlyExpenses:   monthlyExpenses,
			SavingsGoal:       savingsGoal,
			CurrentSavings:    currentSavingsPolicy(totalBalance),
			LastMonthBalance:  lastMonthIncome - lastMonthExpenses,
			LastMonthIncome:   lastMonthIncome,
			LastMonthExpenses: lastMonthExpenses,
		},
		RecentTransactions: recentResponses,
		SpendingCategories: categories,
	}, nil
}
