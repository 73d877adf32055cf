// Package marketdata fetches best-effort daily closing prices for portfolio
// valuation. Lookups are deliberately lossy: any failure yields 0 and the
// caller substitutes a stored reference price, so a market-data outage can
// never break the dashboard or portfolio views.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "marketdata").Logger()

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Asset types with a live market quote. Everything else values at buy price.
const (
	TypeCrypto = "crypto"
	TypeStock  = "stock"
)

// Client queries the quote provider's daily chart endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client against the public provider endpoint. The
// timeout bounds how long a price lookup may stall a request handler.
func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// chartResponse is the subset of the chart payload we care about.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// FetchPrice returns the most recent daily closing price for the symbol, or 0
// when the asset type has no live quote or the lookup fails for any reason.
// It never returns an error: a 0 result tells the caller to fall back to the
// stored buy price.
func (c *Client) FetchPrice(ctx context.Context, symbol, assetType string) float64 {
	ticker, ok := NormalizeSymbol(symbol, assetType)
	if !ok {
		return 0
	}
	price, err := c.dailyClose(ctx, ticker)
	if err != nil {
		logger.Warn().Err(err).Str("symbol", ticker).Msg("price lookup failed, falling back")
		return 0
	}
	return price
}

// NormalizeSymbol maps a stored symbol to the provider's ticker form.
// Crypto quotes in INR; stocks written in anything but full uppercase are
// assumed to trade on the domestic exchange. The second return is false when
// the asset type has no live quote at all.
func NormalizeSymbol(symbol, assetType string) (string, bool) {
	switch assetType {
	case TypeCrypto:
		return symbol + "-INR", true
	case TypeStock:
		if isAllUpper(symbol) {
			return symbol, true
		}
		return symbol + ".NS", true
	default:
		return "", false
	}
}

// isAllUpper reports whether s contains at least one letter and no lowercase
// letters, matching the "foreign ticker" heuristic of the quote provider.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func (c *Client) dailyClose(ctx context.Context, ticker string) (float64, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "wealthify/1.0")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("chart %s: %s", ticker, resp.Status)
	}
	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("chart %s: decode: %w", ticker, err)
	}
	results := payload.Chart.Result
	if len(results) == 0 || len(results[0].Indicators.Quote) == 0 {
		return 0, fmt.Errorf("chart %s: empty result", ticker)
	}
	closes := results[0].Indicators.Quote[0].Close
	// last non-null close is the most recent trading day
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != nil {
			return *closes[i], nil
		}
	}
	return 0, fmt.Errorf("chart %s: no close data", ticker)
}
