package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrMissingElement = errors.New("missing element")
	ErrDuplicateTitle = errors.New("duplicate book title")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrAnalyzer       = errors.New("analyzer failure")
	ErrOutput         = errors.New("output failure")
)
