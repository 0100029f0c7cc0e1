package scoring

import (
	"fmt"
	"strings"
)

// WatchFloor is the probability at or below which a non-alert sample is
// reported as clear rather than watch.
const WatchFloor = 0.01

// Tier is the discrete risk outcome for a scored sample.
type Tier string

const (
	// TierAlert means a Halo CME event is likely occurring.
	TierAlert Tier = "ALERT"
	// TierWatch means an event is possible; solar activity should be monitored.
	TierWatch Tier = "WATCH"
	// TierClear means no event is detected.
	TierClear Tier = "CLEAR"
)

// Policy selects how probabilities below the threshold are reported.
type Policy string

const (
	// PolicyThreeTier reports WATCH for WatchFloor < p <= threshold.
	PolicyThreeTier Policy = "three_tier"
	// PolicyTwoTier never reports WATCH.
	PolicyTwoTier Policy = "two_tier"
)

// DefaultPolicy is used when none is configured.
const DefaultPolicy = PolicyThreeTier

// ParsePolicy validates a configured policy name. Empty selects DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultPolicy, nil
	case PolicyThreeTier:
		return PolicyThreeTier, nil
	case PolicyTwoTier:
		return PolicyTwoTier, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Decide maps a positive-class probability to a tier.
// Both bounds are strict: p == threshold is not ALERT and p == WatchFloor is
// not WATCH.
func Decide(p float64, threshold Threshold, policy Policy) Tier {
	if p > threshold.Float64() {
		return TierAlert
	}
	if policy == PolicyTwoTier {
		return TierClear
	}
	if p > WatchFloor {
		return TierWatch
	}
	return TierClear
}
