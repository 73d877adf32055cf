package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wealthify/models"

	"gorm.io/gorm"
)

// monthLayout is how expense rows key their month, e.g. "Apr-2025".
const monthLayout = "Jan-2006"

// ErrNotEnoughHistory means the user lacks the expense history the forecast
// model needs; surfaced to the caller as a client error, not a server fault.
var ErrNotEnoughHistory = errors.New("not enough data for prediction: add at least 3 months of expenses")

// expenseRow loads the categorized expense record for one month, zero-valued
// when the user has no row for that month.
func expenseRow(g *gorm.DB, userID uint, month string) (models.Expense, error) {
	var e models.Expense
	err := g.Where("user_id = ? AND month = ?", userID, month).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Expense{}, nil
	}
	if err != nil {
		return models.Expense{}, fmt.Errorf("load expenses for %s: %w", month, err)
	}
	return e, nil
}

// lagFeatures returns the total expense of the 3 calendar months preceding
// month, most recent first, zero-padded where history is missing.
func lagFeatures(g *gorm.DB, userID uint, month time.Time) ([]float64, error) {
	lags := make([]float64, 0, 3)
	for i := 1; i <= 3; i++ {
		prev := month.AddDate(0, -i, 0).Format(monthLayout)
		e, err := expenseRow(g, userID, prev)
		if err != nil {
			return nil, err
		}
		lags = append(lags, e.TotalExpense)
	}
	return lags, nil
}

// expenseFeatures assembles the feature vector for the next-month expense
// model: 3 lag totals followed by the month's 11 per-category amounts. The
// model was trained on at least 3 months of context, so fewer than 3 observed
// lags is a hard stop.
func expenseFeatures(g *gorm.DB, userID uint, month string) ([]float64, error) {
	m, err := time.Parse(monthLayout, month)
	if err != nil {
		return nil, fmt.Errorf("bad month %q (want e.g. Apr-2025): %w", month, err)
	}
	lags, err := lagFeatures(g, userID, m)
	if err != nil {
		return nil, err
	}
	observed := 0
	for _, lag := range lags {
		if lag != 0 {
			observed++
		}
	}
	if observed < 3 {
		return nil, ErrNotEnoughHistory
	}
	e, err := expenseRow(g, userID, month)
	if err != nil {
		return nil, err
	}
	return append(lags, e.CategoryValues()...), nil
}

// savingsFeatures assembles the feature vector for the desired-savings model:
// the month's 11 per-category amounts followed by the declared income.
func savingsFeatures(g *gorm.DB, userID uint, month string, income float64) ([]float64, error) {
	if _, err := time.Parse(monthLayout, month); err != nil {
		return nil, fmt.Errorf("bad month %q (want e.g. Apr-2025): %w", month, err)
	}
	e, err := expenseRow(g, userID, month)
	if err != nil {
		return nil, err
	}
	return append(e.CategoryValues(), income), nil
}

// predictExpense scores the next-month total-expense model for the user.
func predictExpense(ctx context.Context, g *gorm.DB, userID uint, month string) (float64, error) {
	features, err := expenseFeatures(g, userID, month)
	if err != nil {
		return 0, err
	}
	return expenseScorer.Score(ctx, features)
}

// predictSavings scores the desired-savings model for the user.
func predictSavings(ctx context.Context, g *gorm.DB, userID uint, month string, income float64) (float64, error) {
	features, err := savingsFeatures(g, userID, month, income)
	if err != nil {
		return 0, err
	}
	return savingsScorer.Score(ctx, features)
}
