package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Log receives one warning per failed attempt. Nil means silent.
	Log logrus.FieldLogger
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

// Retryable reports whether a response status is worth another attempt:
// server errors and rate limiting.
func Retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// Do executes an HTTP request with exponential backoff retry.
// buildReq is called on each attempt since request bodies are consumed.
func Do(ctx context.Context, client *http.Client, cfg RetryConfig, buildReq func() (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetry.MaxAttempts
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		req, err := buildReq()
		if err != nil {
			return nil, errors.Wrap(err, "build request")
		}

		resp, err := client.Do(req)
		if err == nil && !Retryable(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = errors.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.Log != nil {
			cfg.Log.WithFields(logrus.Fields{
				"attempt": attempt,
				"max":     cfg.MaxAttempts,
				"delay":   delay.String(),
			}).WithError(lastErr).Warn("request failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return nil, errors.Wrapf(lastErr, "all %d attempts failed", cfg.MaxAttempts)
}
