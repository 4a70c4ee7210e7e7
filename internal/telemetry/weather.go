package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPWeather fetches a forecast from a JSON endpoint. The endpoint is
// expected to return {"condition": "...", "temperature_c": N}; anything else
// is an error, never a fabricated forecast.
type HTTPWeather struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPWeather(url, apiKey string) *HTTPWeather {
	return &HTTPWeather{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *HTTPWeather) Forecast(ctx context.Context) (*Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather http call: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("weather status %d", resp.StatusCode)
	}
	var f Forecast
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("parse weather response: %w", err)
	}
	return &f, nil
}
