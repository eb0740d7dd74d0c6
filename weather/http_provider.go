package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 5 * time.Second

type temperatureResponse struct {
	Temperature *float64 `json:"temperature"`
}

// HTTPProvider reads the temperature from a JSON endpoint answering
// {"temperature": <number>}.
type HTTPProvider struct {
	url        string
	httpClient *http.Client
}

func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPProvider{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *HTTPProvider) Temperature(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Caller gave up: report that, not an outage.
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, string(body))
	}

	var payload temperatureResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrServiceUnavailable, err)
	}
	if payload.Temperature == nil {
		return 0, fmt.Errorf("%w: no temperature in response", ErrServiceUnavailable)
	}

	return *payload.Temperature, nil
}
