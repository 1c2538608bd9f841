package symptoms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giygas/medicine-shop/logging"
)

// ErrUpstream is returned when the prediction service fails
var ErrUpstream = errors.New("prediction service unavailable")

// Prediction is what the portal shows after a symptom check
type Prediction struct {
	Symptoms    []string `json:"symptoms"`
	Disease     string   `json:"predicted_disease,omitempty"`
	Description string   `json:"description,omitempty"`
	Precautions []string `json:"precautions,omitempty"`
	Medications []string `json:"medications,omitempty"`
	Diet        []string `json:"diet,omitempty"`
	Workout     []string `json:"workout,omitempty"`
}

// Predictor turns validated symptoms into a prediction
type Predictor interface {
	Predict(ctx context.Context, symptoms []string) (Prediction, error)
}

// EchoPredictor returns the validated symptoms unchanged. It stands in when
// no prediction service is configured.
type EchoPredictor struct{}

func (EchoPredictor) Predict(_ context.Context, symptoms []string) (Prediction, error) {
	return Prediction{Symptoms: symptoms}, nil
}

// HTTPPredictor forwards symptoms as a form POST to a prediction service
// that answers with a JSON Prediction.
type HTTPPredictor struct {
	URL    string
	Client *http.Client
}

// NewHTTPPredictor returns a predictor with a bounded client
func NewHTTPPredictor(endpoint string) *HTTPPredictor {
	return &HTTPPredictor{
		URL:    endpoint,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *HTTPPredictor) Predict(ctx context.Context, symptoms []string) (Prediction, error) {
	form := url.Values{"symptoms": {strings.Join(symptoms, ",")}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close prediction response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var prediction Prediction
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&prediction); err != nil {
		return Prediction{}, fmt.Errorf("%w: invalid response: %v", ErrUpstream, err)
	}
	if len(prediction.Symptoms) == 0 {
		prediction.Symptoms = symptoms
	}

	return prediction, nil
}
