// Package loadtest drives concurrent traffic against a running detector and
// checks that every response is consistent with what was sent.
package loadtest

import (
	"time"

	"github.com/okian/halo/pkg/logger"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Samples      int           // Number of observations to submit
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	Jitter       float64       // Relative perturbation applied to each feature, e.g. 0.2 = +/-20%
	InvalidEvery int           // Every n-th sample is malformed; 0 disables
	Seed         uint64        // Seed for the sample generator
	OutputFile   string        // Optional JSON file for the generated samples
	Logger       logger.Logger // Defaults to a no-op logger
}

// Sample is one generated observation.
type Sample struct {
	Index int    `json:"index"`
	Input string `json:"input"`
	Valid bool   `json:"valid"`
}

// Stats holds test statistics.
type Stats struct {
	Generated int
	Submitted int
	Alerts    int
	Watches   int
	Clears    int
	Rejected  int
	Failed    int

	// InvalidSent counts malformed samples; each must come back rejected.
	InvalidSent int

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Accepted is the number of samples that were scored.
func (s *Stats) Accepted() int { return s.Alerts + s.Watches + s.Clears }
