// Package service wires the feature parser, scorer, and advisory presenter
// into the prediction pipeline used by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/halo/internal/adapters/classifier"
	"github.com/okian/halo/internal/domain/advisory"
	"github.com/okian/halo/internal/domain/features"
	"github.com/okian/halo/internal/domain/scoring"
	"github.com/okian/halo/pkg/logger"
	"github.com/okian/halo/pkg/metrics"
)

// Prediction is the full outcome of one pipeline run.
type Prediction struct {
	RequestID string
	Features  features.Vector
	Result    scoring.Result
	Advisory  advisory.Advisory
}

// Info describes the decision configuration and the loaded model.
type Info struct {
	Model      classifier.Info `json:"model"`
	Threshold  float64         `json:"threshold"`
	Policy     scoring.Policy  `json:"policy"`
	WatchFloor float64         `json:"watch_floor"`
	Features   []string        `json:"features"`
}

// Service runs Parse -> Score -> Present against an immutable runtime context.
type Service struct {
	mu      sync.RWMutex
	started bool

	scorer    *scoring.Scorer
	model     classifier.Info
	closer    func() error
	logger    logger.Logger
	newID     func() string
	clock     clockwork.Clock
	threshold scoring.Threshold
	policy    scoring.Policy
	clf       scoring.Classifier
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClassifier sets the probability model.
func WithClassifier(c scoring.Classifier) Option {
	return func(s *Service) {
		s.clf = c
	}
}

// WithModel sets the classifier from a loaded model and takes ownership of it.
func WithModel(m classifier.Model) Option {
	return func(s *Service) {
		if m == nil {
			return
		}
		s.clf = m
		s.model = m.Info()
		s.closer = m.Close
	}
}

// WithThreshold sets the calibrated decision threshold.
func WithThreshold(t scoring.Threshold) Option {
	return func(s *Service) {
		s.threshold = t
	}
}

// WithPolicy selects the decision rule.
func WithPolicy(p scoring.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithClock sets the clock used for timestamps and latency.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the request id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs a Service. A classifier and a valid threshold are required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		policy: scoring.DefaultPolicy,
		clock:  clockwork.NewRealClock(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.clf == nil {
		return nil, ErrNoClassifier
	}
	if _, err := scoring.NewThreshold(s.threshold.Float64()); err != nil {
		return nil, err
	}
	policy, err := scoring.ParsePolicy(string(s.policy))
	if err != nil {
		return nil, err
	}
	s.policy = policy
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.model.Features == 0 {
		s.model.Features = features.Count
	}

	s.scorer = scoring.NewScorer(s.clf, s.threshold,
		scoring.WithPolicy(s.policy),
		scoring.WithClock(s.clock),
	)
	return s, nil
}

// Start publishes the decision configuration and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	metrics.UpdateDecisionThreshold(s.threshold.Float64())
	metrics.UpdateModelInfo(s.model.Trees, s.clock.Now().Unix())

	s.started = true
	s.logger.Info(ctx, "halo detector ready",
		logger.String("model", s.model.Path),
		logger.String("format", string(s.model.Format)),
		logger.Int("trees", s.model.Trees),
		logger.Float64("threshold", s.threshold.Float64()),
		logger.String("policy", string(s.policy)),
	)
	return nil
}

// Stop releases the model, if the service owns one.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started && s.closer == nil {
		return nil
	}
	s.started = false

	var err error
	if s.closer != nil {
		err = s.closer()
		s.closer = nil
	}
	s.logger.Info(context.Background(), "halo detector stopped")
	return err
}

// CheckReadiness returns nil once the service has started.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotReady
	}
	return nil
}

// Info reports the decision configuration.
func (s *Service) Info() Info {
	names := make([]string, len(features.Names))
	copy(names, features.Names[:])
	return Info{
		Model:      s.model,
		Threshold:  s.threshold.Float64(),
		Policy:     s.policy,
		WatchFloor: scoring.WatchFloor,
		Features:   names,
	}
}

// Predict parses a comma-separated observation and runs the pipeline.
// Parse failures are returned as *features.ParseError.
func (s *Service) Predict(ctx context.Context, raw string) (Prediction, error) {
	v, err := features.Parse(raw)
	if err != nil {
		return Prediction{}, s.rejected(ctx, err)
	}
	return s.evaluate(ctx, v)
}

// PredictValues runs the pipeline on already numeric values.
func (s *Service) PredictValues(ctx context.Context, vals []float64) (Prediction, error) {
	v, err := features.ParseValues(vals)
	if err != nil {
		return Prediction{}, s.rejected(ctx, err)
	}
	return s.evaluate(ctx, v)
}

func (s *Service) rejected(ctx context.Context, err error) error {
	var pe *features.ParseError
	if errors.As(err, &pe) {
		metrics.RecordParseError(pe.Kind.String())
	}
	s.logger.Debug(ctx, "input rejected", logger.Error(err))
	return err
}

func (s *Service) evaluate(ctx context.Context, v features.Vector) (Prediction, error) {
	id := s.newID()

	res, err := s.scorer.Score(ctx, v)
	if err != nil {
		metrics.RecordClassifierError()
		metrics.RecordErrorByType("classifier", "error")
		s.logger.Error(ctx, "scoring failed",
			logger.String("request_id", id),
			logger.Error(err),
		)
		return Prediction{}, fmt.Errorf("predict %s: %w", id, err)
	}

	metrics.RecordClassifierLatency(float64(res.Latency.Microseconds()) / 1000)
	metrics.RecordPrediction(string(res.Tier), string(res.Policy), res.Probability)

	s.logger.Debug(ctx, "prediction scored",
		logger.String("request_id", id),
		logger.Float64("probability", res.Probability),
		logger.String("tier", string(res.Tier)),
		logger.Duration("latency", res.Latency),
	)

	return Prediction{
		RequestID: id,
		Features:  v,
		Result:    res,
		Advisory:  advisory.For(res),
	}, nil
}
