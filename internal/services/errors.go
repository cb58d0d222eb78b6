package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrExternalAPI   = errors.New("external api error")
)

// Category groups failures into the pipeline's error taxonomy.
type Category string

const (
	CategoryExternalAPI   Category = "external_api"
	CategoryUpstream      Category = "upstream_artifact"
	CategoryExternalTool  Category = "external_tool"
	CategoryConfiguration Category = "configuration"
	CategoryUnknown       Category = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return &wrappedError{marker: marker, message: strings.TrimSpace(message), err: fmt.Errorf("%w: %s: %w", marker, detail, err)}
	}
	return &wrappedError{marker: marker, message: strings.TrimSpace(message), err: fmt.Errorf("%w: %s", marker, detail)}
}

type wrappedError struct {
	marker  error
	message string
	err     error
}

func (e *wrappedError) Error() string { return e.err.Error() }

func (e *wrappedError) Unwrap() error { return e.err }

// ErrorDetails carries the user-facing parts of a wrapped error.
type ErrorDetails struct {
	Message  string
	Category Category
}

// Details extracts the message supplied to Wrap along with the error category.
// Errors that were not produced by Wrap fall back to their full text.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Category: CategoryUnknown}
	}
	details := ErrorDetails{Category: Classify(err)}
	var wrapped *wrappedError
	if errors.As(err, &wrapped) && wrapped.message != "" {
		details.Message = wrapped.message
		return details
	}
	details.Message = strings.TrimSpace(err.Error())
	return details
}

// Classify maps an error to the category used for logging and manifest records.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrExternalAPI), errors.Is(err, ErrTimeout), errors.Is(err, ErrTransient):
		return CategoryExternalAPI
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return CategoryUpstream
	case errors.Is(err, ErrExternalTool):
		return CategoryExternalTool
	case errors.Is(err, ErrConfiguration):
		return CategoryConfiguration
	default:
		return CategoryUnknown
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
