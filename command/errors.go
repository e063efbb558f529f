package command

import (
	"net/http"

	"github.com/goliatone/go-contact-relay/core"
	goerrors "github.com/goliatone/go-errors"
)

func commandDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.RelayErrorInternal)
}

func commandValidationError(field string, message string) error {
	return goerrors.NewValidation("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.RelayErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

func commandOutcomeError(result core.EventResult) error {
	message := "command: contact sync " + string(result.Outcome)
	metadata := map[string]any{
		"object_id": result.ObjectID.String(),
		"outcome":   string(result.Outcome),
	}
	if result.Err != nil {
		wrapped := goerrors.Wrap(result.Err, goerrors.CategoryExternal, message).
			WithMetadata(metadata)
		if wrapped.Code == 0 {
			wrapped.WithCode(http.StatusBadGateway)
		}
		if wrapped.TextCode == "" {
			wrapped.WithTextCode(core.RelayErrorExternalFailure)
		}
		return wrapped
	}
	return goerrors.New(message, goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(core.RelayErrorExternalFailure).
		WithMetadata(metadata)
}
