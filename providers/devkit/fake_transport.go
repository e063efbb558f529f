package devkit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-contact-relay/core"
)

// Route is a scripted reply for requests whose method matches and whose url
// path ends with PathSuffix.
type Route struct {
	Method     string
	PathSuffix string
	Response   core.TransportResponse
	Err        error
}

// JSON builds a scripted response carrying a JSON body.
func JSON(status int, body string) core.TransportResponse {
	return core.TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
		Metadata:   map[string]any{"kind": "fake"},
	}
}

// FakeTransportAdapter replays scripted responses and records every request
// it receives. Unmatched requests get a 404.
type FakeTransportAdapter struct {
	mu       sync.Mutex
	routes   []Route
	requests []core.TransportRequest
}

func NewFakeTransportAdapter(routes ...Route) *FakeTransportAdapter {
	return &FakeTransportAdapter{routes: append([]Route(nil), routes...)}
}

func (a *FakeTransportAdapter) Kind() string {
	return "fake"
}

func (a *FakeTransportAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil {
		return core.TransportResponse{}, fmt.Errorf("devkit: fake transport adapter is nil")
	}
	if err := ctx.Err(); err != nil {
		return core.TransportResponse{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, cloneTransportRequest(req))
	path := req.URL
	if index := strings.Index(path, "?"); index >= 0 {
		path = path[:index]
	}
	for _, route := range a.routes {
		if route.Method != "" && !strings.EqualFold(route.Method, req.Method) {
			continue
		}
		if !strings.HasSuffix(path, route.PathSuffix) {
			continue
		}
		return cloneTransportResponse(route.Response), route.Err
	}
	return JSON(http.StatusNotFound, `{"message":"route not scripted"}`), nil
}

func (a *FakeTransportAdapter) Requests() []core.TransportRequest {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]core.TransportRequest, 0, len(a.requests))
	for _, item := range a.requests {
		out = append(out, cloneTransportRequest(item))
	}
	return out
}

func cloneTransportRequest(in core.TransportRequest) core.TransportRequest {
	out := core.TransportRequest{
		Method:               in.Method,
		URL:                  in.URL,
		Headers:              map[string]string{},
		Query:                map[string]string{},
		Body:                 append([]byte(nil), in.Body...),
		Metadata:             map[string]any{},
		Timeout:              in.Timeout,
		MaxResponseBodyBytes: in.MaxResponseBodyBytes,
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Query {
		out.Query[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

func cloneTransportResponse(in core.TransportResponse) core.TransportResponse {
	out := core.TransportResponse{
		StatusCode: in.StatusCode,
		Headers:    map[string]string{},
		Body:       append([]byte(nil), in.Body...),
		Metadata:   map[string]any{},
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

var _ core.TransportAdapter = (*FakeTransportAdapter)(nil)
