package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-contact-relay/core"
	"github.com/goliatone/go-contact-relay/query"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	WebhookPath  = "/hubspot-webhook"
	ActivityPath = "/activity"

	HealthStatus = "HubSpot to PandaDoc Webhook Server is running!"

	defaultShutdownGrace = 10 * time.Second
)

// WebhookHandler runs one webhook delivery and reports its batch summary.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, body []byte) (core.BatchSummary, error)
}

type ActivityQuerier = gocmd.Querier[query.ListActivityMessage, []core.ActivityEntry]

type Option func(*Server)

func WithLogger(logger core.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivity enables GET /activity backed by querier.
func WithActivity(querier ActivityQuerier) Option {
	return func(s *Server) {
		s.activity = querier
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func WithShutdownGrace(grace time.Duration) Option {
	return func(s *Server) {
		if grace > 0 {
			s.shutdownGrace = grace
		}
	}
}

type Server struct {
	cfg           core.Config
	webhooks      WebhookHandler
	activity      ActivityQuerier
	logger        core.Logger
	now           func() time.Time
	startedAt     time.Time
	shutdownGrace time.Duration
	httpServer    *http.Server
}

func New(cfg core.Config, webhooks WebhookHandler, opts ...Option) (*Server, error) {
	if webhooks == nil {
		return nil, serverError("server: webhook handler is required", nil)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = core.DefaultMaxBodyBytes
	}
	s := &Server{
		cfg:           cfg,
		webhooks:      webhooks,
		logger:        glog.Nop(),
		now:           func() time.Time { return time.Now().UTC() },
		shutdownGrace: defaultShutdownGrace,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.startedAt = s.now()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST "+WebhookPath, s.handleWebhook)
	mux.HandleFunc("GET "+ActivityPath, s.handleActivity)
	return s.requestContext(s.accessLog(mux))
}

func (s *Server) Addr() string {
	if s == nil || s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr, "service", s.cfg.ServiceName)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("server listening", "addr", listener.Addr().String(), "service", s.cfg.ServiceName)
	err := s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight deliveries, waiting at most the configured grace
// period.
func (s *Server) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.shutdownGrace)
	defer cancel()
	s.logger.Info("server shutting down", "grace", s.shutdownGrace.String())
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) uptime() float64 {
	return s.now().Sub(s.startedAt).Seconds()
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	return path
}
