package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/resume-matcher/internal/extraction"
	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/suggestion"
)

// Kind is the caller-facing category of an analysis failure.
type Kind string

const (
	// KindInputValidation means the request itself was unusable; retrying will not help
	KindInputValidation Kind = "input_validation"
	// KindServiceUnavailable means the generative service kept failing
	KindServiceUnavailable Kind = "service_unavailable"
	// KindQualityGate means no generated suggestion passed the quality gate
	KindQualityGate Kind = "quality_gate"
	// KindInternal is everything else
	KindInternal Kind = "internal"
)

// Error is returned by Analyzer for every failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// classify wraps a pipeline failure into an *Error.
func classify(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	var unsupported *extraction.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return &Error{Kind: KindInputValidation, Message: unsupported.Error(), Cause: err}
	}

	var exhausted *suggestion.ExhaustedError
	if errors.As(err, &exhausted) {
		var gateErr *suggestion.QualityGateError
		if errors.As(exhausted.Cause, &gateErr) {
			return &Error{Kind: KindQualityGate, Message: "could not generate an acceptable suggestion", Cause: err}
		}
		return &Error{Kind: KindServiceUnavailable, Message: "suggestion service unavailable", Cause: err}
	}

	var serviceErr *llm.ServiceError
	if errors.As(err, &serviceErr) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindServiceUnavailable, Message: "suggestion service unavailable", Cause: err}
	}

	return &Error{Kind: KindInternal, Message: "analysis failed", Cause: err}
}
