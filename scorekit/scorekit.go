// Package scorekit assembles a ScoreService from a ranking store, an identity provider
// and optional event consumers.
package scorekit

import (
	"log/slog"

	"scorekit/adapters/offline"
	"scorekit/analytics"
	"scorekit/engine"
	"scorekit/identity"
	"scorekit/integrations/webhook"
)

// Option configures the service builder.
type Option func(*options)

type options struct {
	store    engine.RankingStore
	identity engine.IdentityProvider
	mode     engine.DispatchMode
	sinks    []*webhook.Sink
	hooks    []analytics.Hook
	logger   *slog.Logger
}

// WithStore sets the ranking store.
func WithStore(s engine.RankingStore) Option { return func(o *options) { o.store = s } }

// WithIdentity sets the local player identity provider.
func WithIdentity(p engine.IdentityProvider) Option { return func(o *options) { o.identity = p } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(o *options) { o.mode = m } }

// WithWebhook forwards events to a webhook sink.
func WithWebhook(s *webhook.Sink) Option {
	return func(o *options) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithHooks registers analytics hooks for every event.
func WithHooks(h ...analytics.Hook) Option { return func(o *options) { o.hooks = append(o.hooks, h...) } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// New builds a ScoreService. If not provided, defaults are used:
//   - store: offline (never available)
//   - identity: a generated identity held in memory
//   - dispatch: async
//
// The caller still has to call Start to probe the store.
func New(opts ...Option) *engine.ScoreService {
	o := &options{mode: engine.DispatchAsync, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = offline.New()
	}
	if o.identity == nil {
		o.identity = identity.Static(identity.Generate())
	}

	bus := engine.NewEventBus(o.mode, engine.WithBusLogger(o.logger))
	svc := engine.NewScoreService(o.store, o.identity, bus, engine.WithLogger(o.logger))
	for _, s := range o.sinks {
		svc.Subscribe(engine.AnyEvent, s.OnEvent)
	}
	if len(o.hooks) > 0 {
		bridge := analytics.NewBridge(o.hooks...)
		svc.Subscribe(engine.AnyEvent, bridge.OnEvent)
	}
	return svc
}

