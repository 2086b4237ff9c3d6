// Package detector provides the fallback-chain runner shared by all four
// detector modalities and the process-wide provider registry.
package detector

import (
	"errors"
	"fmt"
)

// Error codes for detector operations.
const (
	ErrCodeProviderNotFound = "provider_not_found"
	ErrCodeInvalidConfig    = "invalid_config"
)

// DetectorError reports a failure configuring or registering a detector.
// It is never returned from Analyze itself — per §4.1, detector faults are
// caught internally and mapped to an Unknown-valued result.
type DetectorError struct {
	Op   string
	Code string
	Err  error
}

func (e *DetectorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("detector %s: %v (code: %s)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("detector %s: unknown error (code: %s)", e.Op, e.Code)
}

func (e *DetectorError) Unwrap() error { return e.Err }

func NewDetectorError(op, code string, err error) *DetectorError {
	return &DetectorError{Op: op, Code: code, Err: err}
}

// IsDetectorError reports whether err is a *DetectorError.
func IsDetectorError(err error) bool {
	var de *DetectorError
	return errors.As(err, &de)
}
