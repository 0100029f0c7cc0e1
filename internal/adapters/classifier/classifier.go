// Package classifier loads trained model artifacts and exposes them as
// scoring.Classifier implementations.
package classifier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/halo/internal/domain/scoring"
)

// Format identifies a serialized model format.
type Format string

const (
	// FormatCatBoostJSON is CatBoost's save_model(format="json") output.
	FormatCatBoostJSON Format = "catboost_json"
	// FormatONNX is an ONNX graph evaluated by onnxruntime.
	FormatONNX Format = "onnx"
)

// Default ONNX tensor names, as written by CatBoost's ONNX export.
const (
	defaultInputName  = "features"
	defaultOutputName = "probabilities"
	positiveClass     = 1
)

// ParseFormat validates a configured format name. Empty means "infer".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", "auto":
		return "", nil
	case FormatCatBoostJSON, "json", "catboost":
		return FormatCatBoostJSON, nil
	case FormatONNX:
		return FormatONNX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Info describes a loaded model.
type Info struct {
	Format   Format `json:"format"`
	Path     string `json:"path"`
	Trees    int    `json:"trees,omitempty"`
	Features int    `json:"features"`
}

// Model is a loaded classifier that owns its resources.
type Model interface {
	scoring.Classifier
	Info() Info
	Close() error
}

// Load reads a model artifact once at startup.
func Load(ctx context.Context, path string, opts ...Option) (Model, error) {
	o := loadOptions{
		inputName:  defaultInputName,
		outputName: defaultOutputName,
		positive:   positiveClass,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := o.format
	if format == "" {
		format = inferFormat(path)
	}

	switch format {
	case FormatCatBoostJSON:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadModel, err)
		}
		defer func() { _ = f.Close() }()

		cb, err := ParseCatBoost(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadModel, path, err)
		}
		cb.info.Path = path
		return cb, nil
	case FormatONNX:
		return newONNX(path, o)
	default:
		return nil, fmt.Errorf("%w: cannot infer format of %q", ErrUnknownFormat, path)
	}
}

func inferFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatCatBoostJSON
	case ".onnx":
		return FormatONNX
	default:
		return ""
	}
}
