package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPScorer calls an external sentiment service. The endpoint accepts
// {"text": ...} and returns {"score": ...} with score in [-1,1].
type HTTPScorer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPScorer creates a scorer for the given endpoint. The timeout
// should be short; sentiment is on the interaction's critical path and
// the caller falls back to a local heuristic on failure.
func NewHTTPScorer(endpoint string, timeout time.Duration) *HTTPScorer {
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &HTTPScorer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// Score posts the text to the scoring endpoint.
func (s *HTTPScorer) Score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("sentiment: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("sentiment: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sentiment: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("sentiment: API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("sentiment: decode response: %w", err)
	}

	score := result.Score
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score, nil
}
