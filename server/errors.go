package server

import (
	"net/http"

	"github.com/goliatone/go-contact-relay/core"
	goerrors "github.com/goliatone/go-errors"
)

func serverError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.RelayErrorInternal)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

func bodyReadError(source error, limit int64) error {
	var maxErr *http.MaxBytesError
	if goerrors.As(source, &maxErr) {
		return goerrors.Wrap(source, goerrors.CategoryBadInput, "server: request body exceeds limit").
			WithCode(http.StatusRequestEntityTooLarge).
			WithTextCode(core.RelayErrorBadInput).
			WithMetadata(map[string]any{"max_body_bytes": limit})
	}
	return goerrors.Wrap(source, goerrors.CategoryBadInput, "server: read request body").
		WithCode(http.StatusBadRequest).
		WithTextCode(core.RelayErrorBadInput)
}
