package suggestion

import "fmt"

// QualityGateError means a generated suggestion did not pass the QualityGate.
type QualityGateError struct {
	Rule    string
	Message string
}

func (e *QualityGateError) Error() string {
	return fmt.Sprintf("suggestion rejected (%s): %s", e.Rule, e.Message)
}

// ExhaustedError means every attempt failed; Cause is the last failure.
type ExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no acceptable suggestion after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}
