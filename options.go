package relay

import (
	"time"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-contact-relay/core"
	"github.com/goliatone/go-contact-relay/transport"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

// ActivityStore is the ledger contract the relay records to and reads from.
type ActivityStore interface {
	core.ActivityRecorder
	core.ActivityReader
}

const defaultActivityCacheTTL = 30 * time.Second

type Option func(*builder)

type builder struct {
	logger           core.Logger
	loggerProvider   core.LoggerProvider
	httpClient       transport.HTTPDoer
	transport        core.TransportAdapter
	activity         ActivityStore
	activityCacheTTL time.Duration
	commandRegistry  *command.Registry
	queueRegistry    *jobqueuecommand.Registry
	subscribe        bool
	now              func() time.Time
}

func newBuilder() *builder {
	return &builder{activityCacheTTL: defaultActivityCacheTTL}
}

func WithLogger(logger core.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *builder) {
		b.loggerProvider = provider
	}
}

// WithHTTPClient replaces the client used for HubSpot and PandaDoc calls.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(b *builder) {
		b.httpClient = client
	}
}

// WithTransport replaces the whole outbound transport adapter.
func WithTransport(adapter core.TransportAdapter) Option {
	return func(b *builder) {
		b.transport = adapter
	}
}

// WithActivityStore records outcomes to store instead of the configured
// ledger.
func WithActivityStore(store ActivityStore) Option {
	return func(b *builder) {
		b.activity = store
	}
}

func WithActivityCacheTTL(ttl time.Duration) Option {
	return func(b *builder) {
		if ttl > 0 {
			b.activityCacheTTL = ttl
		}
	}
}

func WithCommandRegistry(registry *command.Registry) Option {
	return func(b *builder) {
		b.commandRegistry = registry
	}
}

// WithQueueRegistry mirrors the relay commands into a go-job queue registry
// so workers can run contact syncs.
func WithQueueRegistry(registry *jobqueuecommand.Registry) Option {
	return func(b *builder) {
		b.queueRegistry = registry
	}
}

// WithDispatcherSubscriptions subscribes the relay commands and queries to
// the process-wide go-command dispatcher. Close releases them.
func WithDispatcherSubscriptions() Option {
	return func(b *builder) {
		b.subscribe = true
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *builder) {
		b.now = now
	}
}

func newRESTAdapter(client transport.HTTPDoer, timeout time.Duration) core.TransportAdapter {
	return transport.NewRESTAdapter(client, timeout)
}
