package core

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	RelayErrorBadInput        = "RELAY_BAD_INPUT"
	RelayErrorNotFound        = "RELAY_NOT_FOUND"
	RelayErrorUnauthorized    = "RELAY_UNAUTHORIZED"
	RelayErrorForbidden       = "RELAY_FORBIDDEN"
	RelayErrorConflict        = "RELAY_CONFLICT"
	RelayErrorRateLimited     = "RELAY_RATE_LIMITED"
	RelayErrorExternalFailure = "RELAY_EXTERNAL_FAILURE"
	RelayErrorInternal        = "RELAY_INTERNAL_ERROR"
)

// MapError normalizes any error into a go-errors envelope with a stable text
// code and HTTP status.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureRelayErrorEnvelope(richErr)
	}

	switch {
	case goerrors.Is(err, context.Canceled):
		return ensureRelayErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryOperation, "request canceled").
				WithCode(499).
				WithTextCode(RelayErrorInternal),
		)
	case goerrors.Is(err, context.DeadlineExceeded):
		return ensureRelayErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryExternal, "request timed out").
				WithCode(http.StatusGatewayTimeout).
				WithTextCode(RelayErrorExternalFailure),
		)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureRelayErrorEnvelope(mapped)
}

func ensureRelayErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = TextCodeForCategory(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func TextCodeForCategory(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return RelayErrorBadInput
	case goerrors.CategoryNotFound:
		return RelayErrorNotFound
	case goerrors.CategoryAuth:
		return RelayErrorUnauthorized
	case goerrors.CategoryAuthz:
		return RelayErrorForbidden
	case goerrors.CategoryConflict:
		return RelayErrorConflict
	case goerrors.CategoryRateLimit:
		return RelayErrorRateLimited
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return RelayErrorExternalFailure
	default:
		return RelayErrorInternal
	}
}

func HTTPStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CategoryForStatus classifies an upstream HTTP status.
func CategoryForStatus(status int) goerrors.Category {
	switch {
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= 400 && status < 500:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr == nil {
		return 0
	}
	if richErr.Metadata != nil {
		switch typed := richErr.Metadata["status_code"].(type) {
		case int:
			return typed
		case int64:
			return int(typed)
		case float64:
			return int(typed)
		}
	}
	return richErr.Code
}

func coreError(message string, category goerrors.Category, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(HTTPStatusForCategory(category)).
		WithTextCode(TextCodeForCategory(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
