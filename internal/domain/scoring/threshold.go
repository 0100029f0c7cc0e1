package scoring

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Threshold is the calibrated probability cutoff above which a sample is
// classified positive. Always within (0,1).
type Threshold float64

// NewThreshold validates v.
func NewThreshold(v float64) (Threshold, error) {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return 0, fmt.Errorf("%w: %v must be within (0,1)", ErrInvalidThreshold, v)
	}
	return Threshold(v), nil
}

// ParseThreshold reads a single float literal, ignoring surrounding whitespace.
func ParseThreshold(s string) (Threshold, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidThreshold, err)
	}
	return NewThreshold(v)
}

// LoadThreshold reads the threshold file written by calibration.
func LoadThreshold(path string) (Threshold, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLoadThreshold, err)
	}
	t, err := ParseThreshold(string(b))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrLoadThreshold, path, err)
	}
	return t, nil
}

// Float64 returns the threshold as a plain float.
func (t Threshold) Float64() float64 { return float64(t) }
