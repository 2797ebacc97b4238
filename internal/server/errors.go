package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-matcher/internal/analysis"
	"github.com/jonathan/resume-matcher/internal/extraction"
	"github.com/jonathan/resume-matcher/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		schemaErr     *schemas.ValidationError
		unsupported   *extraction.UnsupportedFormatError
		extractErr    *extraction.Error
		tooLarge      *http.MaxBytesError
		analysisErr   *analysis.Error
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validationErr), errors.As(err, &schemaErr),
		errors.As(err, &unsupported), errors.As(err, &extractErr):
		return http.StatusBadRequest
	case errors.As(err, &analysisErr):
		switch analysisErr.Kind {
		case analysis.KindInputValidation:
			return http.StatusBadRequest
		case analysis.KindQualityGate:
			return http.StatusBadGateway
		case analysis.KindServiceUnavailable:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}

// errorBody is the JSON body of every failed request.
type errorBody struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Details []string `json:"details,omitempty"`
}

// newErrorBody describes err without leaking internal causes.
func newErrorBody(err error) errorBody {
	var (
		analysisErr *analysis.Error
		schemaErr   *schemas.ValidationError
		tooLarge    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &analysisErr):
		if analysisErr.Kind == analysis.KindInternal {
			return errorBody{Error: "internal error", Kind: string(analysisErr.Kind)}
		}
		return errorBody{Error: analysisErr.Message, Kind: string(analysisErr.Kind)}
	case errors.As(err, &schemaErr):
		body := errorBody{Error: "request does not match schema", Kind: string(analysis.KindInputValidation)}
		for _, fe := range schemaErr.Errors {
			body.Details = append(body.Details, fe.Field+": "+fe.Message)
		}
		return body
	case errors.As(err, &tooLarge):
		return errorBody{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), Kind: string(analysis.KindInputValidation)}
	}
	if HTTPStatus(err) == http.StatusBadRequest {
		return errorBody{Error: err.Error(), Kind: string(analysis.KindInputValidation)}
	}
	return errorBody{Error: "internal error", Kind: string(analysis.KindInternal)}
}
