// Package scoring turns a classifier probability into a risk tier.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/halo/internal/domain/features"
)

// Classifier is the trained model. Implementations must be safe for
// concurrent use once loaded.
type Classifier interface {
	// PredictProba returns the probability of the positive ("CME detected") class.
	PredictProba(ctx context.Context, v features.Vector) (float64, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, v features.Vector) (float64, error)

// PredictProba calls f.
func (f ClassifierFunc) PredictProba(ctx context.Context, v features.Vector) (float64, error) {
	return f(ctx, v)
}

// Result is the outcome of scoring one sample.
type Result struct {
	Probability float64
	Tier        Tier
	Threshold   Threshold
	Policy      Policy
	ScoredAt    time.Time
	Latency     time.Duration
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithPolicy sets the decision policy.
func WithPolicy(p Policy) Option {
	return func(s *Scorer) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithClock sets the time source used for timestamps and latency.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scorer) {
		if c != nil {
			s.clock = c
		}
	}
}

// Scorer applies the decision rule to classifier output. It holds no mutable
// state after construction and may be shared across goroutines.
type Scorer struct {
	classifier Classifier
	threshold  Threshold
	policy     Policy
	clock      clockwork.Clock
}

// NewScorer creates a Scorer for an already loaded classifier and threshold.
func NewScorer(classifier Classifier, threshold Threshold, opts ...Option) *Scorer {
	s := &Scorer{
		classifier: classifier,
		threshold:  threshold,
		policy:     DefaultPolicy,
		clock:      clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score runs the classifier on v and classifies the result.
func (s *Scorer) Score(ctx context.Context, v features.Vector) (Result, error) {
	start := s.clock.Now()
	p, err := s.classifier.PredictProba(ctx, v)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrClassifier, err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	end := s.clock.Now()

	return Result{
		Probability: p,
		Tier:        Decide(p, s.threshold, s.policy),
		Threshold:   s.threshold,
		Policy:      s.policy,
		ScoredAt:    end,
		Latency:     end.Sub(start),
	}, nil
}
