// Package faults defines the error taxonomy shared by the analysis engine.
package faults

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Typed errors below unwrap to one of these.
var (
	ErrExtraction              = errors.New("extraction error")
	ErrClassificationAmbiguity = errors.New("classification ambiguity")
	ErrConfiguration           = errors.New("configuration error")
	ErrValidation              = errors.New("validation error")
	ErrCancelled               = errors.New("cancelled")
)

// Kind is the audit label for an error class.
type Kind string

const (
	KindExtraction              Kind = "ExtractionError"
	KindClassificationAmbiguity Kind = "ClassificationAmbiguity"
	KindConfiguration           Kind = "ConfigurationError"
	KindValidation              Kind = "ValidationError"
	KindCancelled               Kind = "Cancelled"
	KindUnknown                 Kind = "Unknown"
)

// Recoverable reports whether processing continues after an error of this kind.
func (k Kind) Recoverable() bool {
	return k != KindConfiguration
}

// KindOf classifies err for audit records.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrExtraction):
		return KindExtraction
	case errors.Is(err, ErrClassificationAmbiguity):
		return KindClassificationAmbiguity
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	default:
		return KindUnknown
	}
}

// ConfigurationError is fatal for the calculation that raised it.
type ConfigurationError struct {
	Component string
	Key       string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s: %s", e.Component, e.Key, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Configf builds a ConfigurationError.
func Configf(component, key, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Component: component, Key: key, Reason: fmt.Sprintf(format, args...)}
}

// ExtractionError marks a page or document that could not be parsed.
// Page is 0 for document-level failures.
type ExtractionError struct {
	Document string
	Page     int
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extracting %s page %d: %v", e.Document, e.Page, e.Err)
	}
	return fmt.Sprintf("extracting %s: %v", e.Document, e.Err)
}

// Unwrap exposes both the extraction kind and the underlying cause.
func (e *ExtractionError) Unwrap() []error { return []error{ErrExtraction, e.Err} }

// ValidationError describes one record that fails a consistency check.
type ValidationError struct {
	Locator string
	Reason  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation [%s]: %s", e.Locator, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e ValidationError) Unwrap() error { return ErrValidation }
