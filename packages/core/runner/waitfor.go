package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/yapi/packages/http"
)

// WaitForConfig describes a readiness probe run before the suites.
type WaitForConfig struct {
	URL      string
	Status   int
	Timeout  time.Duration
	Interval time.Duration
}

// WaitFor polls cfg.URL until it answers with cfg.Status or the timeout
// elapses.
func (r *Runner) WaitFor(ctx context.Context, cfg WaitForConfig) error {
	if cfg.URL == "" {
		return nil
	}
	if cfg.Status == 0 {
		cfg.Status = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}

	r.logger.Info().Str("url", cfg.URL).Int("status", cfg.Status).Dur("timeout", cfg.Timeout).Msg("waiting for service")

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var lastErr error
	var lastStatus int
	for {
		resp, err := r.transport.Do(ctx, http.NewRequest("GET", cfg.URL))
		if err == nil {
			lastStatus = resp.StatusCode
			if resp.StatusCode == cfg.Status {
				r.logger.Debug().Str("url", cfg.URL).Msg("service is ready")
				return nil
			}
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastStatus != 0 {
				return fmt.Errorf("service %s not ready after %v: got status %d, expected %d",
					cfg.URL, cfg.Timeout, lastStatus, cfg.Status)
			}
			return fmt.Errorf("service %s not ready after %v: %v", cfg.URL, cfg.Timeout, lastErr)
		case <-time.After(cfg.Interval):
		}
	}
}
