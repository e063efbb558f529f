package inbound

import (
	"net/http"

	"github.com/goliatone/go-contact-relay/core"
	goerrors "github.com/goliatone/go-errors"
)

// malformedBodyError rejects a delivery whose body cannot be read as a batch.
// source may be nil.
func malformedBodyError(source error, message string, bodyBytes int) error {
	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, goerrors.CategoryBadInput, message)
	} else {
		err = goerrors.New(message, goerrors.CategoryBadInput)
	}
	return err.
		WithCode(http.StatusBadRequest).
		WithTextCode(core.RelayErrorBadInput).
		WithMetadata(map[string]any{"body_bytes": bodyBytes})
}

func misconfiguredError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.RelayErrorInternal)
}
