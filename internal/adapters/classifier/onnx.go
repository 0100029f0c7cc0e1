package classifier

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/okian/halo/internal/domain/features"
)

// ortMu guards the process-wide onnxruntime environment.
var ortMu sync.Mutex

// ONNX evaluates an ONNX export of the classifier. Each call allocates its
// own tensors, so concurrent PredictProba calls share only the session.
type ONNX struct {
	session  *ort.DynamicAdvancedSession
	positive int
	info     Info
}

func newONNX(path string, o loadOptions) (*ONNX, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadModel, err)
	}
	if err := initRuntime(o.libraryPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{o.inputName}, []string{o.outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadModel, path, err)
	}

	return &ONNX{
		session:  session,
		positive: o.positive,
		info:     Info{Format: FormatONNX, Path: path, Features: features.Count},
	}, nil
}

func initRuntime(libraryPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath == "" {
		return fmt.Errorf("%w: onnxruntime library path is required", ErrRuntime)
	}
	if _, err := os.Stat(libraryPath); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	ort.SetSharedLibraryPath(libraryPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	return nil
}

// PredictProba runs the graph on a single [1, 18] float32 row and returns
// the positive-class column of the probability output.
func (c *ONNX) PredictProba(ctx context.Context, v features.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	input, err := ort.NewTensor(ort.NewShape(1, features.Count), v.Float32s())
	if err != nil {
		return 0, fmt.Errorf("%w: input tensor: %w", ErrRuntime, err)
	}
	defer func() { _ = input.Destroy() }()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return 0, fmt.Errorf("%w: output tensor: %w", ErrRuntime, err)
	}
	defer func() { _ = output.Destroy() }()

	if err := c.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, fmt.Errorf("%w: run: %w", ErrRuntime, err)
	}

	probs := output.GetData()
	if c.positive >= len(probs) {
		return 0, fmt.Errorf("%w: output has %d classes", ErrRuntime, len(probs))
	}
	return float64(probs[c.positive]), nil
}

// Info describes the loaded model.
func (c *ONNX) Info() Info { return c.info }

// Close releases the session.
func (c *ONNX) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}
