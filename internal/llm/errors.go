package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	genaisdk "google.golang.org/genai"

	"github.com/jonathan/resume-matcher/internal/retry"
)

// ErrorKind classifies a failed call to the generative service.
type ErrorKind string

const (
	// KindRateLimited means the provider refused the call because of quota or rate limits
	KindRateLimited ErrorKind = "rate_limited"
	// KindTransient covers timeouts, network failures and server errors
	KindTransient ErrorKind = "transient"
	// KindMalformed means the provider answered but the answer was empty or unusable
	KindMalformed ErrorKind = "malformed"
)

// ServiceError is a classified failure of the generative service.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Classify wraps err in a ServiceError describing its kind.
// Cancellation by the caller is returned unchanged so it is never retried.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return &ServiceError{Kind: classifyKind(err), Message: "generative service call failed", Cause: err}
}

func classifyKind(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return kindForStatus(gErr.Code)
	}

	var apiErr genaisdk.APIError
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "ratelimit", "quota", "resource_exhausted", "resource exhausted"} {
		if strings.Contains(msg, marker) {
			return KindRateLimited
		}
	}
	return KindTransient
}

func kindForStatus(code int) ErrorKind {
	if code == http.StatusTooManyRequests {
		return KindRateLimited
	}
	return KindTransient
}

// KindOf returns the kind of a classified error, or "" if err is not a ServiceError.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

// IsRetryable reports whether a failed call may be attempted again.
func IsRetryable(err error) bool {
	return KindOf(err) != ""
}

// Backoff waits rateLimitBase·2^attempt after a rate-limited call and a flat
// delay after any other failure.
func Backoff(rateLimitBase, flat time.Duration) retry.BackoffFunc {
	exponential := retry.Exponential(rateLimitBase, 0)
	return func(attempt int, err error) time.Duration {
		if IsRateLimited(err) {
			return exponential(attempt, err)
		}
		return flat
	}
}
