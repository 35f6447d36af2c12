// Package worker provides background recompute processing for stored
// itineraries.
package worker

import (
	"time"
)

// RecomputeConfig holds configuration for the recompute job.
type RecomputeConfig struct {
	// Concurrency is the number of itineraries recomputed in parallel.
	// Default: 3
	Concurrency int

	// Timeout applies to each individual itinerary. Default: 30s.
	Timeout time.Duration
}

// DefaultRecomputeConfig returns the default recompute configuration.
func DefaultRecomputeConfig() RecomputeConfig {
	return RecomputeConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

func (c RecomputeConfig) withDefaults() RecomputeConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
