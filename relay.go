package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"

	gocmd "github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-contact-relay/adapters/gocommand"
	"github.com/goliatone/go-contact-relay/adapters/gologger"
	relaycommand "github.com/goliatone/go-contact-relay/command"
	"github.com/goliatone/go-contact-relay/core"
	"github.com/goliatone/go-contact-relay/inbound"
	"github.com/goliatone/go-contact-relay/providers/hubspot"
	"github.com/goliatone/go-contact-relay/providers/pandadoc"
	relayquery "github.com/goliatone/go-contact-relay/query"
	"github.com/goliatone/go-contact-relay/server"
	sqlstore "github.com/goliatone/go-contact-relay/store/sql"
	goerrors "github.com/goliatone/go-errors"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type Config = core.Config

type BatchSummary = core.BatchSummary

type EventResult = core.EventResult

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// LoadConfig resolves the configuration from the process environment.
func LoadConfig(ctx context.Context) (Config, error) {
	return core.LoadConfig(ctx, core.NewEnvConfigLoader(), nil)
}

type Commands struct {
	SyncContact *relaycommand.SyncContactCommand
}

type Queries struct {
	ListActivity *relayquery.ListActivityQuery
}

// Relay wires the webhook pipeline, the HTTP surface and, when configured,
// the activity ledger.
type Relay struct {
	cfg        core.Config
	logger     core.Logger
	dispatcher *inbound.Dispatcher
	server     *server.Server
	commands   Commands
	queries    Queries
	registry   *gocommand.RegistryAdapter
	activity   ActivityStore
	ledger     *sqlstore.Ledger

	subscriptions []commanddispatcher.Subscription
}

// New validates cfg and builds every component. The caller owns the returned
// relay and must Close it.
func New(ctx context.Context, cfg core.Config, opts ...Option) (*Relay, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := newBuilder()
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	provider, logger := gologger.Resolve("relay", b.loggerProvider, b.logger)

	adapter := b.transport
	if adapter == nil {
		adapter = newRESTAdapter(b.httpClient, cfg.RequestTimeout)
	}

	fetcher, err := hubspot.NewFetcher(hubspot.Config{
		AccessToken: cfg.HubSpot.AccessToken,
		BaseURL:     cfg.HubSpot.BaseURL,
	}, adapter, provider.GetLogger("relay.hubspot"))
	if err != nil {
		return nil, err
	}
	upserter, err := pandadoc.NewUpserter(pandadoc.Config{
		APIKey:  cfg.PandaDoc.APIKey,
		BaseURL: cfg.PandaDoc.BaseURL,
	}, adapter, provider.GetLogger("relay.pandadoc"))
	if err != nil {
		return nil, err
	}

	r := &Relay{cfg: cfg, logger: logger}
	r.dispatcher = inbound.NewDispatcher(fetcher, upserter)
	r.dispatcher.Logger = provider.GetLogger("relay.inbound")
	if b.now != nil {
		r.dispatcher.Now = b.now
	}

	if err := r.openActivity(ctx, b); err != nil {
		return nil, err
	}
	if r.activity != nil {
		r.dispatcher.Recorder = r.activity
		r.queries.ListActivity = relayquery.NewListActivityQuery(r.activity)
	}
	r.commands.SyncContact = relaycommand.NewSyncContactCommand(r.dispatcher)

	if err := r.registerCommands(b); err != nil {
		_ = r.Close()
		return nil, err
	}

	serverOpts := []server.Option{
		server.WithLogger(provider.GetLogger("relay.server")),
	}
	if r.queries.ListActivity != nil {
		serverOpts = append(serverOpts, server.WithActivity(r.queries.ListActivity))
	}
	if b.now != nil {
		serverOpts = append(serverOpts, server.WithClock(b.now))
	}
	srv, err := server.New(cfg, r.dispatcher, serverOpts...)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	r.server = srv

	logger.Info("relay ready",
		"service", cfg.ServiceName,
		"addr", cfg.Addr(),
		"activity_ledger", r.activity != nil,
	)
	return r, nil
}

func (r *Relay) openActivity(ctx context.Context, b *builder) error {
	if b.activity != nil {
		r.activity = b.activity
		return nil
	}
	if !r.cfg.Activity.Enabled() {
		return nil
	}
	ledger, err := sqlstore.OpenLedger(ctx, r.cfg.Activity)
	if err != nil {
		return err
	}
	r.ledger = ledger

	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = b.activityCacheTTL
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		_ = ledger.Close()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "relay: activity cache").
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.RelayErrorInternal)
	}
	cached, err := sqlstore.NewCachedActivityStore(ledger.Store(), cacheService)
	if err != nil {
		_ = ledger.Close()
		return err
	}
	r.activity = cached
	return nil
}

func (r *Relay) registerCommands(b *builder) error {
	r.registry = gocommand.NewRegistryAdapter(b.commandRegistry)
	if b.queueRegistry != nil {
		if err := r.registry.AddQueueResolver("queue", b.queueRegistry); err != nil {
			return err
		}
	}

	if b.subscribe {
		subscription, err := gocommand.RegisterAndSubscribe(r.registry, gocmd.Commander[relaycommand.SyncContactMessage](r.commands.SyncContact))
		if err != nil {
			return err
		}
		r.subscriptions = append(r.subscriptions, subscription)
		if r.queries.ListActivity != nil {
			subscription, err := gocommand.RegisterAndSubscribeQuery(r.registry,
				gocmd.Querier[relayquery.ListActivityMessage, []core.ActivityEntry](r.queries.ListActivity))
			if err != nil {
				return err
			}
			r.subscriptions = append(r.subscriptions, subscription)
		}
	} else {
		if err := r.registry.RegisterCommand(r.commands.SyncContact); err != nil {
			return err
		}
		if r.queries.ListActivity != nil {
			if err := r.registry.RegisterQuery(r.queries.ListActivity); err != nil {
				return err
			}
		}
	}
	return r.registry.Initialize()
}

func (r *Relay) Config() core.Config {
	if r == nil {
		return core.Config{}
	}
	return r.cfg
}

func (r *Relay) Commands() Commands {
	if r == nil {
		return Commands{}
	}
	return r.commands
}

func (r *Relay) Queries() Queries {
	if r == nil {
		return Queries{}
	}
	return r.queries
}

func (r *Relay) Dispatcher() *inbound.Dispatcher {
	if r == nil {
		return nil
	}
	return r.dispatcher
}

func (r *Relay) Server() *server.Server {
	if r == nil {
		return nil
	}
	return r.server
}

func (r *Relay) Handler() http.Handler {
	if r == nil || r.server == nil {
		return http.NotFoundHandler()
	}
	return r.server.Handler()
}

// HandleWebhook runs a raw webhook body through the pipeline without HTTP.
func (r *Relay) HandleWebhook(ctx context.Context, body []byte) (core.BatchSummary, error) {
	return r.dispatcher.HandleWebhook(ctx, body)
}

// SyncContact resyncs one contact as if a contact.creation event had been
// delivered for it.
func (r *Relay) SyncContact(ctx context.Context, objectID string) (core.EventResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	collector := gocmd.NewResult[core.EventResult]()
	ctx = gocmd.ContextWithResult(ctx, collector)
	err := r.commands.SyncContact.Execute(ctx, relaycommand.SyncContactMessage{
		ObjectID: core.ObjectID(strings.TrimSpace(objectID)),
	})
	result, _ := collector.Load()
	return result, err
}

// RecentActivity lists the newest ledger entries. It fails when the ledger is
// disabled.
func (r *Relay) RecentActivity(ctx context.Context, limit int) ([]core.ActivityEntry, error) {
	if r.queries.ListActivity == nil {
		return nil, goerrors.New("relay: activity ledger is disabled", goerrors.CategoryNotFound).
			WithCode(http.StatusNotFound).
			WithTextCode(core.RelayErrorNotFound)
	}
	return r.queries.ListActivity.Query(ctx, relayquery.ListActivityMessage{Limit: limit})
}

func (r *Relay) ListenAndServe() error {
	return r.server.ListenAndServe()
}

func (r *Relay) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

// Close releases command subscriptions and the ledger connection.
func (r *Relay) Close() error {
	if r == nil {
		return nil
	}
	for _, subscription := range r.subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	r.subscriptions = nil
	var err error
	if r.ledger != nil {
		err = errors.Join(err, r.ledger.Close())
		r.ledger = nil
	}
	return err
}
