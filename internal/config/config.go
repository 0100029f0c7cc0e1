// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation errors wrap ErrInvalidConfig; load failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/halo/internal/adapters/classifier"
	"github.com/okian/halo/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ModelPath points at the trained classifier artifact.
	ModelPath string `koanf:"model_path"`

	// ModelFormat forces the artifact format; empty infers it from the extension.
	ModelFormat string `koanf:"model_format"`

	// ONNXLibraryPath is the onnxruntime shared library, required for .onnx models.
	ONNXLibraryPath string `koanf:"onnx_library_path"`

	// ONNXInputName and ONNXOutputName override the graph tensor names;
	// empty keeps the names CatBoost writes.
	ONNXInputName  string `koanf:"onnx_input_name"`
	ONNXOutputName string `koanf:"onnx_output_name"`

	// ThresholdPath points at the text file holding the calibrated threshold.
	ThresholdPath string `koanf:"threshold_path"`

	// Policy selects the decision rule: three_tier or two_tier.
	Policy string `koanf:"policy"`

	ReadTimeoutMS     int `koanf:"read_timeout_ms"`
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		ModelPath:         "catboost_final.json",
		ThresholdPath:     "optimal_threshold.txt",
		Policy:            string(scoring.DefaultPolicy),
		ReadTimeoutMS:     5_000,
		ShutdownTimeoutMS: 10_000,
	}
}

// Validate checks field values and returns an error wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ModelPath) == "" {
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ThresholdPath) == "" {
		return fmt.Errorf("%w: threshold_path must not be empty", ErrInvalidConfig)
	}
	if _, err := c.DecisionPolicy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := classifier.ParseFormat(c.ModelFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.ReadTimeoutMS <= 0 || c.ShutdownTimeoutMS <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}

// DecisionPolicy parses the configured policy.
func (c *Config) DecisionPolicy() (scoring.Policy, error) {
	return scoring.ParsePolicy(c.Policy)
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
