package services

import (
	"fmt"
	"net/http"
)

// Code identifies a failure category surfaced to API clients.
type Code string

const (
	CodeServiceNotConnected   Code = "service_not_connected"
	CodeRateLimited           Code = "rate_limited"
	CodeQuotaExceeded         Code = "quota_exceeded"
	CodeProviderAuthError     Code = "provider_auth_error"
	CodeProviderRateLimited   Code = "provider_rate_limited"
	CodeProviderUnavailable   Code = "provider_unavailable"
	CodeProviderEmptyResponse Code = "provider_empty_response"
	CodeCatalogAuthError      Code = "catalog_auth_error"
	CodeNoMatchesFound        Code = "no_matches_found"
	CodeInternalError         Code = "internal_error"
)

// PipelineError carries a client-facing code and message through the
// generation pipeline, wrapping the underlying cause for logs.
type PipelineError struct {
	Code    Code
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// HTTPStatus maps a failure code to its response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeServiceNotConnected:
		return http.StatusBadRequest
	case CodeRateLimited, CodeQuotaExceeded, CodeProviderRateLimited:
		return http.StatusTooManyRequests
	case CodeProviderAuthError, CodeCatalogAuthError:
		return http.StatusUnauthorized
	case CodeProviderUnavailable:
		return http.StatusBadGateway
	case CodeProviderEmptyResponse, CodeNoMatchesFound:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func pipelineErr(code Code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}
