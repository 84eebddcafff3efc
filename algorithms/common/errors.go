package common

import "errors"

var (
	// ErrInsufficientData is returned when a series holds fewer samples
	// than a computation needs.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameter is returned when a configuration value is out of
	// range. It is raised before any computation starts.
	ErrInvalidParameter = errors.New("invalid parameter")
)
