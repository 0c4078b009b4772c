// Package client talks to a running prediction service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PredictResponse is the body returned by POST /predict.
type PredictResponse struct {
	Success        bool               `json:"success"`
	Prediction     int                `json:"prediction"`
	OriginalClass  int                `json:"original_model_prediction"`
	Label          string             `json:"prediction_label"`
	Recommendation string             `json:"recommendation"`
	Confidence     float64            `json:"confidence"`
	Timestamp      string             `json:"timestamp"`
	ModelType      string             `json:"model_type"`
	UsingFallback  bool               `json:"using_fallback"`
	FeaturesUsed   map[string]float64 `json:"features_used"`
	PredictionID   string             `json:"prediction_id"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Model         string `json:"model"`
	UsingFallback bool   `json:"using_fallback"`
	FeaturesCount int    `json:"features_count"`
	Timestamp     string `json:"timestamp"`
}

// PredictClient calls the prediction service over HTTP.
type PredictClient struct {
	baseURL string
	http    *http.Client
}

func NewPredictClient(baseURL string) *PredictClient {
	return &PredictClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Predict posts features to /predict.
func (c *PredictClient) Predict(ctx context.Context, features map[string]float64) (*PredictResponse, error) {
	requestBody, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(requestBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out PredictResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches /health.
func (c *PredictClient) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	var out HealthResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PredictClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
