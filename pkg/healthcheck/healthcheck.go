// Package healthcheck aggregates dependency probes for startup gating and
// the liveness endpoint.
package healthcheck

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is the outcome of one probe.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Check probes one dependency.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Result is one probe outcome.
type Result struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// Report is one full health sweep.
type Report struct {
	Status  Status   `json:"status"`
	Results []Result `json:"results"`
}

// Checker runs probes concurrently with a per-probe timeout.
type Checker struct {
	checks  []Check
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a checker.
func New(timeout time.Duration, logger *zap.Logger, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  checks,
		timeout: timeout,
		logger:  logger.Named("healthcheck"),
	}
}

// Run probes every dependency and reports unhealthy if any probe fails.
func (c *Checker) Run(ctx context.Context) Report {
	report := Report{
		Status:  StatusHealthy,
		Results: make([]Result, len(c.checks)),
	}

	var wg sync.WaitGroup
	for i, check := range c.checks {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := check.Probe(probeCtx)
			result := Result{
				Name:    check.Name,
				Status:  StatusHealthy,
				Latency: time.Since(start),
			}
			if err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
			}
			report.Results[i] = result
		}(i, check)
	}
	wg.Wait()

	for _, result := range report.Results {
		if result.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			c.logger.Warn("Dependency unhealthy",
				zap.String("name", result.Name),
				zap.String("error", result.Error))
		}
	}
	return report
}
