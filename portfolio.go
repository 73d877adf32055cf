package main

import (
	"context"
	"fmt"
	"time"

	"wealthify/models"

	"gorm.io/gorm"
)

// priceFetcher is the oracle boundary: implementations must swallow lookup
// failures and return 0, never an error. Satisfied by marketdata.Client.
type priceFetcher interface {
	FetchPrice(ctx context.Context, symbol, assetType string) float64
}

// priceOracle is wired in main; tests substitute a stub.
var priceOracle priceFetcher

// AssetResponse is the wire form of a holding.
type AssetResponse struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	BuyPrice float64 `json:"buy_price"`
	BuyDate  string  `json:"buy_date"`
	Type     string  `json:"type"`
}

// PortfolioOverview is the valuation of all of a user's holdings.
type PortfolioOverview struct {
	TotalValue    float64         `json:"total_value"`
	InvestedTotal float64         `json:"invested_total"`
	GainLoss      float64         `json:"gain_loss"`
	PercentChange float64         `json:"percent_change"`
	Assets        []AssetResponse `json:"assets"`
}

// SnapshotResponse is one point of the portfolio history series.
type SnapshotResponse struct {
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

func toAssetResponse(a models.Asset) AssetResponse {
	return AssetResponse{
		ID:       a.ID,
		Name:     a.Name,
		Symbol:   a.Symbol,
		Quantity: a.Quantity,
		BuyPrice: a.BuyPrice,
		BuyDate:  a.BuyDate.Format(time.RFC3339),
		Type:     a.Type,
	}
}

// currentPrice resolves the price used to value one holding: the oracle's
// latest close for priced types, with the stored buy price substituted when
// the oracle returns exactly 0 (failed or unsupported lookup). Non-priced
// types always value at buy price. The on-demand overview and the scheduled
// snapshot sweep share this rule so the two paths can never drift apart.
func currentPrice(ctx context.Context, a models.Asset) float64 {
	if a.Type == models.AssetCrypto || a.Type == models.AssetStock {
		if price := priceOracle.FetchPrice(ctx, a.Symbol, a.Type); price != 0 {
			return price
		}
	}
	return a.BuyPrice
}

// computePortfolioOverview values every holding of a user. A user with no
// holdings gets an all-zero overview, not an error.
func computePortfolioOverview(ctx context.Context, g *gorm.DB, userID uint) (PortfolioOverview, error) {
	var assets []models.Asset
	if err := g.Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		return PortfolioOverview{}, fmt.Errorf("load assets for user %d: %w", userID, err)
	}

	overview := PortfolioOverview{Assets: make([]AssetResponse, 0, len(assets))}
	for _, a := range assets {
		overview.InvestedTotal += a.BuyPrice * a.Quantity
		overview.TotalValue += currentPrice(ctx, a) * a.Quantity
		overview.Assets = append(overview.Assets, toAssetResponse(a))
	}
	overview.GainLoss = overview.TotalValue - overview.InvestedTotal
	if overview.InvestedTotal > 0 {
		overview.PercentChange = overview.GainLoss / overview.InvestedTotal * 100
	}
	return overview, nil
}

// recordSnapshot appends one portfolio-value row for the user and returns the
// recorded value. Snapshots are an append-only time series; prior rows are
// never touched.
func recordSnapshot(ctx context.Context, g *gorm.DB, userID uint) (float64, error) {
	var assets []models.Asset
	if err := g.Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		return 0, fmt.Errorf("load assets for user %d: %w", userID, err)
	}
	total := 0.0
	for _, a := range assets {
		total += currentPrice(ctx, a) * a.Quantity
	}
	snapshot := models.PortfolioSnapshot{UserID: userID, Value: total, Timestamp: time.Now()}
	if err := g.Create(&snapshot).Error; err != nil {
		return 0, fmt.Errorf("save snapshot for user %d: %w", userID, err)
	}
	return total, nil
}

// portfolioHistory returns the user's snapshots oldest-first.
func portfolioHistory(g *gorm.DB, userID uint) ([]SnapshotResponse, error) {
	var snapshots []models.PortfolioSnapshot
	if err := g.Where("user_id = ?", userID).
		Order("timestamp ASC").Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("load snapshots for user %d: %w", userID, err)
	}
	history := make([]SnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		history = append(history, SnapshotResponse{
			Value:     s.Value,
			Timestamp: s.Timestamp.Format(time.RFC3339),
		})
	}
	return history, nil
}
