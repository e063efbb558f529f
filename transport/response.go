package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-contact-relay/core"
	goerrors "github.com/goliatone/go-errors"
)

const maxDetailLength = 512

// Success reports whether the response carries a 2xx status.
func Success(res core.TransportResponse) bool {
	return res.StatusCode >= 200 && res.StatusCode < 300
}

// StatusError builds the error for a non-2xx response. The upstream error
// detail is kept in metadata under "detail" and the status under
// "status_code".
func StatusError(message string, res core.TransportResponse, metadata map[string]any) error {
	meta := make(map[string]any, len(metadata)+3)
	for key, value := range metadata {
		meta[key] = value
	}
	meta["status_code"] = res.StatusCode
	if detail := Detail(res.Body); detail != "" {
		meta["detail"] = detail
	}
	if url, ok := res.Metadata["url"]; ok {
		meta["url"] = url
	}
	category := core.CategoryForStatus(res.StatusCode)
	code := res.StatusCode
	if category == goerrors.CategoryExternal {
		code = http.StatusBadGateway
	}
	return transportError(
		fmt.Sprintf("%s: upstream status %d", message, res.StatusCode),
		category,
		code,
		meta,
	)
}

// DecodeJSON unmarshals a response body into out.
func DecodeJSON(res core.TransportResponse, out any, metadata map[string]any) error {
	if err := json.Unmarshal(res.Body, out); err != nil {
		meta := map[string]any{"status_code": res.StatusCode}
		for key, value := range metadata {
			meta[key] = value
		}
		return transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode json response",
			http.StatusBadGateway,
			meta,
		)
	}
	return nil
}

// Detail extracts a human readable error detail from an upstream error body.
// It prefers the "detail" and "message" members, and falls back to the raw
// body.
func Detail(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if text := detailText(payload[key]); text != "" {
				return truncate(text)
			}
		}
	}
	return truncate(trimmed)
}

func detailText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return strings.TrimSpace(fmt.Sprint(typed))
		}
		return strings.TrimSpace(string(encoded))
	}
}

func truncate(value string) string {
	if len(value) <= maxDetailLength {
		return value
	}
	return value[:maxDetailLength] + "..."
}
