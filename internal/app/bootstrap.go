package service

import (
	"context"
	"fmt"

	"github.com/okian/halo/internal/adapters/classifier"
	"github.com/okian/halo/internal/config"
	"github.com/okian/halo/internal/domain/scoring"
)

// FromConfig loads the threshold and model named by cfg and builds a Service
// that owns the model. Any failure here is fatal for the caller: the service
// never runs with a missing model or threshold.
func FromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	policy, err := cfg.DecisionPolicy()
	if err != nil {
		return nil, err
	}
	format, err := classifier.ParseFormat(cfg.ModelFormat)
	if err != nil {
		return nil, err
	}

	threshold, err := scoring.LoadThreshold(cfg.ThresholdPath)
	if err != nil {
		return nil, err
	}

	model, err := classifier.Load(ctx, cfg.ModelPath,
		classifier.WithFormat(format),
		classifier.WithRuntimeLibrary(cfg.ONNXLibraryPath),
		classifier.WithTensorNames(cfg.ONNXInputName, cfg.ONNXOutputName),
	)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithModel(model),
		WithThreshold(threshold),
		WithPolicy(policy),
	}
	svc, err := New(append(base, opts...)...)
	if err != nil {
		_ = model.Close()
		return nil, fmt.Errorf("build service: %w", err)
	}
	return svc, nil
}
