package splist

import (
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-splist/core"
	"github.com/goliatone/go-splist/errorreport"
)

type Option func(*clientOptions)

type clientOptions struct {
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metrics         core.MetricsRecorder
	httpClient      core.HTTPDoer
	transport       core.TransportAdapter
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	errorMapper     core.ErrorMapper
	profileCache    repositorycache.CacheService
	noProfileCache  bool
	journal         errorreport.Journal
	persistence     *persistence.Client
	now             func() time.Time
	skipBootstrap   bool
}

func WithLogger(logger core.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *clientOptions) {
		o.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(o *clientOptions) {
		o.metrics = recorder
	}
}

// WithHTTPClient replaces the http.Client used by the REST transport.
func WithHTTPClient(client core.HTTPDoer) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTransport replaces the REST transport entirely. It wins over
// WithHTTPClient.
func WithTransport(transport core.TransportAdapter) Option {
	return func(o *clientOptions) {
		o.transport = transport
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(o *clientOptions) {
		o.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(o *clientOptions) {
		o.optionsResolver = resolver
	}
}

func WithErrorMapper(mapper core.ErrorMapper) Option {
	return func(o *clientOptions) {
		o.errorMapper = mapper
	}
}

func WithProfileCache(cache repositorycache.CacheService) Option {
	return func(o *clientOptions) {
		o.profileCache = cache
	}
}

// WithoutProfileCache makes every profile lookup hit the users list.
func WithoutProfileCache() Option {
	return func(o *clientOptions) {
		o.noProfileCache = true
	}
}

// WithJournal records undeliverable error reports in journal instead of the
// configured journal database.
func WithJournal(journal errorreport.Journal) Option {
	return func(o *clientOptions) {
		o.journal = journal
	}
}

// WithPersistenceClient keeps the journal in an existing database. The
// caller owns the client.
func WithPersistenceClient(client *persistence.Client) Option {
	return func(o *clientOptions) {
		o.persistence = client
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		o.now = now
	}
}

// WithoutBootstrap skips the development token fetch during New.
func WithoutBootstrap() Option {
	return func(o *clientOptions) {
		o.skipBootstrap = true
	}
}
