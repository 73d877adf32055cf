package main

import (
	"errors"
	"testing"
	"time"

	"wealthify/models"
)

func TestComputeDashboardMonthlySplit(t *testing.T) {
	g := openTestDB(t)
	user := createTestUser(t, g, "dash")
	now := time.Date(2025, time.April, 12, 10, 0, 0, 0, time.UTC)

	// current month: income 50000 day 1, Food 2500 day 1, Entertainment 1200 two days before now
	addTransaction(t, g, user.ID, models.TransactionIncome, "Salary", 50000, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	addTransaction(t, g, user.ID, models.TransactionExpense, "Food", 2500, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	addTransaction(t, g, user.ID, models.TransactionExpense, "Entertainment", 1200, now.AddDate(0, 0, -2))
	// last month
	addTransaction(t, g, user.ID, models.TransactionIncome, "Salary", 40000, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	addTransaction(t, g, user.ID, models.TransactionExpense, "Rent", 15000, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))

	data, err := computeDashboard(g, user.ID, now)
	if err != nil {
		t.Fatalf("computeDashboard: %v", err)
	}
	s := data.Summary
	if s.MonthlyIncome != 50000 {
		t.Errorf("monthly_income = %v, want 50000", s.MonthlyIncome)
	}
	if s.MonthlyExpenses != 3700 {
		t.Errorf("monthly_expenses = %v, want 3700", s.MonthlyExpenses)
	}
	if want := 50000.0 + 40000 - 2500 - 1200 - 15000; s.TotalBalance != want {
		t.Errorf("total_balance = %v, want %v", s.TotalBalance, want)
	}
	if s.LastMonthIncome != 40000 || s.LastMonthExpenses != 15000 || s.LastMonthBalance != 25000 {
		t.Errorf("last month figures = %v/%v/%v, want 40000/15000/25000",
			s.LastMonthIncome, s.LastMonthExpenses, s.LastMonthBalance)
	}
	if s.SavingsGoal != defaultSavingsGoal {
		t.Errorf("savings_goal = %v, want default %v", s.SavingsGoal, defaultSavingsGoal)
	}
	if want := s.TotalBalance * 0.20; !approxEqual(s.CurrentSavings, want, 0.001) {
		t.Errorf("current_savings = %v, want %v", s.CurrentSavings, want)
	}

	if len(data.SpendingCategories) != 2 {
		t.Fatalf("spending categories = %d, want 2", len(data.SpendingCategories))
	}
	// ordered largest first
	food, ent := data.SpendingCategories[0], data.SpendingCategories[1]
	if food.Category != "Food" || food.Amount != 2500 || !approxEqual(food.Percentage, 67.6, 0.05) {
		t.Errorf("food category = %+v, want {Food 2500 67.6}", food)
	}
	if ent.Category != "Entertainment" || ent.Amount != 1200 || !approxEqual(ent.Percentage, 32.4, 0.05) {
		t.Errorf("entertainment category = %+v, want {Entertainment 1200 32.4}", ent)
	}
	if sum := food.Percentage + ent.Percentage; !approxEqual(sum, 100, 0.2) {
		t.Errorf("percentages sum to %v, want ~100", sum)
	}

	if len(data.RecentTransactions) != 5 {
		t.Errorf("recent transactions = %d, want 5", len(data.RecentTransactions))
	}
}

func TestComputeDashboardBalanceOrderIndependent(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	amounts := []struct {
		txType string
		amount float64
	}{
		{models.TransactionExpense, 120.5},
		{models.TransactionIncome, 3000},
		{models.TransactionExpense, 79.5},
		{models.TransactionIncome, 45},
	}

	var balances []float64
	for _, reversed := range []bool{false, true} {
		g := openTestDB(t)
		user := createTestUser(t, g, "order")
		seq := amounts
		if reversed {
			seq = make([]struct {
				txType string
				amount float64
			}, len(amounts))
			for i := range amounts {
				seq[i] = amounts[len(amounts)-1-i]
			}
		}
		for i, a := range seq {
			addTransaction(t, g, user.ID, a.txType, "c", a.amount, now.AddDate(0, -i, 0))
		}
		data, err := computeDashboard(g, user.ID, now)
		if err != nil {
			t.Fatalf("computeDashboard: %v", err)
		}
		balances = append(balances, data.Summary.TotalBalance)
	}
	if want := 3000.0 + 45 - 120.5 - 79.5; balances[0] != want || balances[1] != want {
		t.Errorf("balances = %v, want both %v", balances, want)
	}
}

func TestComputeDashboardEmptyMonth(t *testing.T) {
	g := openTestDB(t)
	user := createTestUser(t, g, "empty")

	data, err := computeDashboard(g, user.ID, time.Now())
	if err != nil {
		t.Fatalf("computeDashboard: %v", err)
	}
	s := data.Summary
	if s.MonthlyIncome != 0 || s.MonthlyExpenses != 0 || s.TotalBalance != 0 {
		t.Errorf("expected all-zero summary, got %+v", s)
	}
	if len(data.SpendingCategories) != 0 {
		t.Errorf("expected no categories, got %v", data.SpendingCategories)
	}
	if len(data.RecentTransactions) != 0 {
		t.Errorf("expected no recent transactions, got %v", data.RecentTransactions)
	}
}

func TestComputeDashboardUserMissing(t *testing.T) {
	g := openTestDB(t)
	_, err := computeDashboard(g, 9999, time.Now())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestComputeDashboardUsesStoredSavingsGoal(t *testing.T) {
	g := openTestDB(t)
	user := createTestUser(t, g, "goal")
	goal := 250000.0
	if err := g.Model(&user).Update("savings_goal", goal).Error; err != nil {
		t.Fatalf("set goal: %v", err)
	}
	data, err := computeDashboard(g, user.ID, time.Now())
	if err != nil {
		t.Fatalf("computeDashboard: %v", err)
	}
	if data.Summary.SavingsGoal != goal {
		t.Errorf("savings_goal = %v, want %v", data.Summary.SavingsGoal, goal)
	}
}

func TestSavingsPolicyPluggable(t *testing.T) {
	g := openTestDB(t)
	user := createTestUser(t, g, "policy")
	addTransaction(t, g, user.ID, models.TransactionIncome, "Salary", 1000, time.Now())

	prev := currentSavingsPolicy
	currentSavingsPolicy = func(totalBalance float64) float64 { return 42 }
	t.Cleanup(func() { currentSavingsPolicy = prev })

	data, err := computeDashboard(g, user.ID, time.Now())
	if err != nil {
		t.Fatalf("computeDashboard: %v", err)
	}
	if data.Summary.CurrentSavings != 42 {
		t.Errorf("current_savings = %v, want 42 from substituted policy", data.Summary.CurrentSavings)
	}
}

func TestSavingsNeverNegative(t *testing.T) {
	g := openTestDB(t)
	user := createTestUser(t, g, "negative")
	addTransaction(t, g, user.ID, models.TransactionExpense, "Rent", 5000, time.Now())

	data, err := computeDashboard(g, user.ID, time.Now())
	if err != nil {
		t.Fatalf("computeDashboard: %v", err)
	}
	if data.Summary.TotalBalance != -5000 {
		t.Errorf("total_balance = %v, want -5000", data.Summary.TotalBalance)
	}
	if data.Summary.CurrentSavings != 0 {
		t.Errorf("current_savings = %v, want 0 for negative balance", data.Summary.CurrentSavings)
	}
}

func TestMonthBounds(t *testing.T) {
	start, next := monthBounds(time.Date(2025, time.January, 31, 23, 59, 0, 0, time.UTC))
	if !start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !next.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next = %v", next)
	}
	// previous month of a January is last year's December
	lastStart, lastNext := monthBounds(start.AddDate(0, 0, -1))
	if !lastStart.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) || !lastNext.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("december bounds = %v..%v", lastStart, lastNext)
	}
}

func TestMonthBoundsAnchoredUTC(t *testing.T) {
	// Bounds come out the same whatever zone the clock reading is in.
	west := time.FixedZone("UTC-5", -5*60*60)
	start, next := monthBounds(time.Date(2025, time.April, 15, 10, 0, 0, 0, west))
	if !start.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) || !next.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bounds = %v..%v", start, next)
	}
}

func TestComputeDashboardServerWestOfUTC(t *testing.T) {
	g := openTestDB(t)
	user := createTestUser(t, g, "tzuser")

	// Stored dates are UTC midnight; a day-1 transaction must count in its
	// own month even when the server clock runs west of UTC.
	addTransaction(t, g, user.ID, models.TransactionIncome, "Salary", 50000, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

	west := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2025, 4, 15, 10, 0, 0, 0, west)

	data, err := computeDashboard(g, user.ID, now)
	if err != nil {
		t.Fatalf("computeDashboard: %v", err)
	}
	if !approxEqual(data.Summary.MonthlyIncome, 50000, 0.001) {
		t.Errorf("monthly income = %v, want 50000", data.Summary.MonthlyIncome)
	}
}
