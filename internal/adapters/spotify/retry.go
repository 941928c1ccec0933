package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// doRequestWithRetry executes req with exponential backoff, honoring
// Retry-After on 429/5xx responses. Every attempt goes through the circuit
// breaker; an open breaker fails fast without burning retries.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	maxRetries := c.maxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseBackoff := c.baseBackoff
	if baseBackoff <= 0 {
		baseBackoff = defaultBackoff
	}

	ctx := req.Context()
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("spotify adapter: request canceled: %w", err)
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			// 5xx counts against the breaker; 4xx is our fault, not theirs.
			if resp.StatusCode >= http.StatusInternalServerError {
				return resp, fmt.Errorf("status %d", resp.StatusCode)
			}
			return resp, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("spotify adapter: circuit open: %w", err)
		}

		retryAfter, retry := shouldRetry(resp, err)
		if !retry {
			return resp, nil
		}

		if err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt+1).Int("max", maxRetries).Msg("retrying request")
			if resp != nil {
				_ = resp.Body.Close()
			}
		} else if resp != nil {
			c.log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Int("max", maxRetries).Msg("retrying request")
			_ = resp.Body.Close()
		}

		if attempt == maxRetries-1 {
			break
		}

		backoff := baseBackoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			backoff = retryAfter
		}
		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("spotify adapter: request failed after %d attempts", maxRetries)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return parseRetryAfter(resp), true
	}
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("spotify adapter: request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
