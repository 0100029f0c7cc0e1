package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrAmbiguousInput   = errors.New("provide exactly one of input or values")
	ErrTrailingData     = errors.New("unexpected data after JSON body")
)
