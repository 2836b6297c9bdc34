// Package client talks to a running counsel server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultServerURL = "http://127.0.0.1:37780"
	httpTimeout      = 10 * time.Second
)

// Client talks to the counsel server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty serverURL falls back to
// COUNSEL_URL, then http://127.0.0.1:37780.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("COUNSEL_URL")
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: strings.TrimRight(serverURL, "/"),
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Field   string `json:"field"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("status %d: %s: %s", e.Status, e.Field, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Approval is the server's answer to a recorded approval.
type Approval struct {
	ID              string    `json:"id"`
	DecisionID      string    `json:"decision_id"`
	Reward          float64   `json:"reward"`
	Timestamp       time.Time `json:"timestamp"`
	WeightsUpdated  int       `json:"weights_updated"`
	WeightsIntended int       `json:"weights_intended"`
	LearningApplied bool      `json:"learning_applied"`
}

// Decision is one ranked decision as listed by the server.
type Decision struct {
	ID                 string    `json:"id"`
	Objective          string    `json:"objective"`
	Recommendation     string    `json:"recommendation"`
	RecommendationType string    `json:"recommendation_type"`
	Confidence         string    `json:"confidence"`
	CreatedAt          time.Time `json:"created_at"`
	Weight             float64   `json:"weight"`
}

// DecisionPage is one page of the ranked listing.
type DecisionPage struct {
	Data   []Decision `json:"data"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// Weight is one ledger edge as listed by the server.
type Weight struct {
	SourceType  string    `json:"source_type"`
	SourceID    string    `json:"source_id"`
	TargetType  string    `json:"target_type"`
	TargetValue string    `json:"target_value"`
	Weight      float64   `json:"weight"`
	UpdateCount int       `json:"update_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WeightPage is a filtered slice of the ledger, strongest edges first.
type WeightPage struct {
	Data  []Weight `json:"data"`
	Count int      `json:"count"`
	Total int      `json:"total"`
}

// RecordApproval posts an approval or rejection. adjustment may be nil.
func (c *Client) RecordApproval(ctx context.Context, decisionID string, approved bool, adjustment *float64) (*Approval, error) {
	body, err := json.Marshal(map[string]any{
		"decision_id":           decisionID,
		"approved":              approved,
		"confidence_adjustment": adjustment,
	})
	if err != nil {
		return nil, err
	}

	var out Approval
	if err := c.do(ctx, http.MethodPost, "/api/approvals", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDecisions fetches one page of the ranked listing.
func (c *Client) ListDecisions(ctx context.Context, objective string, limit, offset int) (*DecisionPage, error) {
	q := url.Values{}
	if objective != "" {
		q.Set("objective", objective)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var out DecisionPage
	if err := c.do(ctx, http.MethodGet, "/api/decisions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWeights fetches ledger edges. Empty sourceType or sourceID match everything.
func (c *Client) ListWeights(ctx context.Context, sourceType, sourceID string, limit int) (*WeightPage, error) {
	q := url.Values{}
	if sourceType != "" {
		q.Set("source_type", sourceType)
	}
	if sourceID != "" {
		q.Set("source_id", sourceID)
	}
	q.Set("limit", strconv.Itoa(limit))

	var out WeightPage
	if err := c.do(ctx, http.MethodGet, "/api/weights?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil) == nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
