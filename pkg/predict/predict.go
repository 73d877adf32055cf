// Package predict delegates financial forecasting to pre-trained models
// hosted on an external scoring server. The models are opaque: this package
// ships feature vectors out and returns a single number back, nothing more.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "predict").Logger()

// Scorer evaluates one feature vector against a pre-trained model.
type Scorer interface {
	Score(ctx context.Context, features []float64) (float64, error)
}

// HTTPScorer scores against a single model endpoint on the model server,
// e.g. POST {base}/score/expense with {"features": [...]}.
type HTTPScorer struct {
	url        string
	httpClient *http.Client
}

// NewHTTPScorer builds a scorer for the named model on the given server.
func NewHTTPScorer(baseURL, model string) *HTTPScorer {
	return &HTTPScorer{
		url:        strings.TrimRight(baseURL, "/") + "/score/" + model,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type scoreRequest struct {
	Features []float64 `json:"features"`
}

type scoreResponse struct {
	Prediction float64 `json:"prediction"`
}

// Score posts the feature vector to the model server and returns its
// prediction. Unlike price lookups, scoring failures propagate: a prediction
// endpoint with no model behind it is an error the caller should see.
func (s *HTTPScorer) Score(ctx context.Context, features []float64) (float64, error) {
	body, err := json.Marshal(scoreRequest{Features: features})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("url", s.url).Msg("model server unreachable")
		return 0, fmt.Errorf("model server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("model server: %s", resp.Status)
	}
	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("model server: decode: %w", err)
	}
	return out.Prediction, nil
}
