package scoring

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrClassifier         = errors.New("classifier failed")
	ErrInvalidProbability = errors.New("classifier returned invalid probability")
	ErrInvalidThreshold   = errors.New("invalid threshold")
	ErrLoadThreshold      = errors.New("load threshold failed")
	ErrUnknownPolicy      = errors.New("unknown decision policy")
)
