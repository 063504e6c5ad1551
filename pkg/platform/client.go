package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type HTTPClient struct {
	Client  *http.Client
	Retries int
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewHTTPClient(retries int, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{
			Timeout: timeout,
		},
		Retries: retries,
		Timeout: timeout,
		Logger:  slog.Default(),
	}
}

// GetJSON performs a GET with exponential back-off retries and decodes the
// response body into out. Transport errors and 5xx responses are retried;
// 4xx responses are returned immediately.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, out any) error {
	var lastErr error

	for i := 0; i <= c.Retries; i++ {
		req, rErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if rErr != nil {
			return rErr
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.Client.Do(req)
		if err == nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				decErr := json.NewDecoder(resp.Body).Decode(out)
				resp.Body.Close()
				return decErr
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode < 500 {
				return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
			}
			lastErr = fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if i < c.Retries {
			c.Logger.Warn("HTTP request failed, retrying", "url", url, "attempt", i+1, "error", lastErr)
			time.Sleep(time.Duration(1<<i) * 200 * time.Millisecond) // Exponential backoff
		}
	}

	return fmt.Errorf("request failed after %d retries: %w", c.Retries, lastErr)
}
