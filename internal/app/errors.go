package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNoClassifier = errors.New("service: classifier is required")
	ErrNotReady     = errors.New("service: not ready")
)
