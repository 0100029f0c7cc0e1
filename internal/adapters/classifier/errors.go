package classifier

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrLoadModel       = errors.New("load model failed")
	ErrInvalidModel    = errors.New("invalid model")
	ErrFeatureMismatch = errors.New("model feature order does not match schema")
	ErrUnknownFormat   = errors.New("unknown model format")
	ErrRuntime         = errors.New("onnx runtime failed")
)
