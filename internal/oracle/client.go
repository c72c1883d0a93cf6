package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"eventflow/internal/metrics"
)

const maxResponseBytes = 64 << 10

// Scorer returns a feasibility score for a proposal, or nil when none is available.
type Scorer interface {
	Score(ctx context.Context, category string, budget float64, footfall int) *float64
}

type scoreRequest struct {
	Category string  `json:"category"`
	Budget   float64 `json:"budget"`
	Footfall int     `json:"footfall"`
}

type scoreResponse struct {
	Score          *float64 `json:"score"`
	PredictionTime string   `json:"prediction_time,omitempty"`
}

// Client calls the feasibility scoring service over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// Ensure Client implements Scorer
var _ Scorer = (*Client)(nil)

// NewClient creates an oracle client. Every call is bounded by timeout.
func NewClient(url string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

// Score makes a single attempt against the oracle. Connection failures,
// non-200 responses and malformed payloads all yield nil.
func (c *Client) Score(ctx context.Context, category string, budget float64, footfall int) *float64 {
	score, err := c.score(ctx, category, budget, footfall)
	if err != nil {
		log.Printf("oracle: %v", err)
		c.metrics.ObserveOracle(metrics.OracleUnavailable)
		return nil
	}
	c.metrics.ObserveOracle(metrics.OracleScored)
	return score
}

func (c *Client) score(ctx context.Context, category string, budget float64, footfall int) (*float64, error) {
	payload, err := json.Marshal(scoreRequest{Category: category, Budget: budget, Footfall: footfall})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call oracle: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, body)
	}

	var parsed scoreResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Score == nil {
		return nil, fmt.Errorf("response has no score")
	}
	return parsed.Score, nil
}
