package splist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-splist/adapters/gocommand"
	"github.com/goliatone/go-splist/auth"
	splistcommand "github.com/goliatone/go-splist/command"
	"github.com/goliatone/go-splist/core"
	"github.com/goliatone/go-splist/directory"
	"github.com/goliatone/go-splist/errorreport"
	"github.com/goliatone/go-splist/odata"
	splistquery "github.com/goliatone/go-splist/query"
	"github.com/goliatone/go-splist/resource"
	sqlstore "github.com/goliatone/go-splist/store/sql"
	"github.com/goliatone/go-splist/transport"
)

const (
	ResourceEntities  = "entities"
	ResourceErrors    = "errors"
	ResourceUsers     = "users"
	ResourceCurrent   = "current"
	ResourceSiteUsers = "site_users"
)

const defaultProfileCacheTTL = 5 * time.Minute

var (
	errorFields    = []string{"Title", "application", "userID", "location", "payload", "message", "ID"}
	entitiesFields = []string{"Title", "ID"}
)

// Resources holds one client per backend collection. All of them share the
// same CredentialStore.
type Resources struct {
	Entities  *resource.Client
	Errors    *resource.Client
	Users     *resource.Client
	Current   *resource.Client
	SiteUsers *resource.Client
}

type Commands struct {
	ReportError   *splistcommand.ReportErrorCommand
	UpdateProfile *splistcommand.UpdateProfileCommand
	ReplacePhoto  *splistcommand.ReplacePhotoCommand
}

type Queries struct {
	CurrentUser      *splistquery.CurrentUserQuery
	SearchUsers      *splistquery.SearchUsersQuery
	LoadListData     *splistquery.LoadListDataQuery
	ListErrorJournal *splistquery.ListErrorJournalQuery
}

// Client is the process-wide entry point. Build it once with New and share
// it; Close releases the journal database when New opened it.
type Client struct {
	config      core.Config
	logger      core.Logger
	credentials *auth.CredentialStore
	resources   Resources
	reporter    *errorreport.Reporter
	journal     errorreport.Journal
	journalDB   *persistence.Client
	directory   *directory.Directory
	lists       *directory.ListLoader
	commands    Commands
	queries     Queries

	closeOnce sync.Once
	closeErr  error
}

// New resolves configuration (defaults, then the config provider, then cfg),
// wires every component and, in development mode, fetches the bearer token.
func New(ctx context.Context, cfg core.Config, opts ...Option) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := clientOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}
	if options.errorMapper == nil {
		options.errorMapper = core.DefaultErrorMapper
	}
	if options.configProvider == nil {
		options.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if options.optionsResolver == nil {
		options.optionsResolver = core.GoOptionsResolver{}
	}

	resolved, err := resolveConfig(ctx, cfg, options)
	if err != nil {
		return nil, core.MapBuildError(options.errorMapper, err)
	}
	client, err := build(ctx, resolved, options)
	if err != nil {
		return nil, core.MapBuildError(options.errorMapper, err)
	}
	return client, nil
}

func resolveConfig(ctx context.Context, runtime core.Config, options clientOptions) (core.Config, error) {
	defaults := core.DefaultConfig()
	loaded, err := options.configProvider.Load(ctx, defaults)
	if err != nil {
		return core.Config{}, fmt.Errorf("splist: load config: %w", err)
	}
	resolved, err := options.optionsResolver.Resolve(defaults, loaded, runtime)
	if err != nil {
		return core.Config{}, fmt.Errorf("splist: resolve config: %w", err)
	}
	return resolved, nil
}

func build(ctx context.Context, cfg core.Config, options clientOptions) (*Client, error) {
	c := &Client{
		config: cfg,
		logger: core.ResolveLogger("splist", options.loggerProvider, options.logger),
	}

	adapter := options.transport
	if adapter == nil {
		rest := transport.NewRESTAdapter(options.httpClient)
		rest.Timeout = cfg.RequestTimeout()
		adapter = rest
	}

	c.credentials = auth.NewCredentialStore(auth.CredentialStoreConfig{
		ListsBaseURL:   cfg.ListsBaseURL,
		TokenURL:       cfg.TokenURL,
		DigestValidity: cfg.DigestValidity(),
		RequestTimeout: cfg.RequestTimeout(),
		Transport:      adapter,
		Logger:         options.logger,
		LoggerProvider: options.loggerProvider,
		Metrics:        options.metrics,
		Now:            options.now,
	})
	if cfg.IsDevelopment() && !options.skipBootstrap {
		c.credentials.Bootstrap(ctx)
	}

	resources, err := buildResources(cfg, c.credentials, adapter, options)
	if err != nil {
		return nil, err
	}
	c.resources = resources

	if err := c.openJournal(ctx, cfg, options); err != nil {
		return nil, err
	}
	c.pruneOnOpen(ctx)

	c.reporter = errorreport.NewReporter(errorreport.Config{
		Application:    cfg.Application,
		Sink:           resources.Errors,
		Users:          errorreport.UserIDFunc(c.currentUserID),
		Journal:        c.journal,
		Logger:         options.logger,
		LoggerProvider: options.loggerProvider,
		Metrics:        options.metrics,
		Now:            options.now,
	})

	cache, err := resolveProfileCache(options)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.directory, err = directory.New(directory.Config{
		DevMode:   cfg.IsDevelopment(),
		DevUserID: cfg.DevUserID,
		SiteBase:  cfg.SiteBaseURL,
		SiteUsers: resources.SiteUsers,
		Profiles:  resources.Users,
		Reporter:  c.reporter,
		Cache:     cache,
		Logger:    options.logger,
		Provider:  options.loggerProvider,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.lists, err = directory.NewListLoader(resources.Current, c.reporter, c.logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	var journalReader splistquery.ErrorJournalReader
	if reader, ok := c.journal.(splistquery.ErrorJournalReader); ok {
		journalReader = reader
	}
	c.commands = Commands{
		ReportError:   splistcommand.NewReportErrorCommand(c.reporter),
		UpdateProfile: splistcommand.NewUpdateProfileCommand(c.directory),
		ReplacePhoto:  splistcommand.NewReplacePhotoCommand(c.directory),
	}
	c.queries = Queries{
		CurrentUser:      splistquery.NewCurrentUserQuery(c.directory),
		SearchUsers:      splistquery.NewSearchUsersQuery(c.directory),
		LoadListData:     splistquery.NewLoadListDataQuery(c.lists),
		ListErrorJournal: splistquery.NewListErrorJournalQuery(journalReader),
	}

	core.Log(ctx, c.logger, core.LevelDebug, "splist client ready", map[string]any{
		"environment": cfg.Environment,
		"application": cfg.Application,
		"journal":     c.journal != nil,
	})
	return c, nil
}

func buildResources(cfg core.Config, credentials *auth.CredentialStore, adapter core.TransportAdapter, options clientOptions) (Resources, error) {
	lists := cfg.Lists

	errorsDef := resource.ListDefinition(ResourceErrors, cfg.ListsBaseURL, lists.Errors.Title, lists.Errors.EntityType,
		odata.Query{Fields: errorFields})
	errorsDef.EchoCreated = true

	usersDef := resource.ListDefinition(ResourceUsers, cfg.ListsBaseURL, lists.Users.Title, lists.Users.EntityType,
		odata.Query{Fields: splitFields(directory.FieldsProfile), Expand: []string{directory.ExpandProfile}})
	usersDef.SearchField = resource.DefaultSearchField
	usersDef.DefaultTop = resource.DefaultTop
	usersDef.Attachments = true

	entitiesTitle := lists.Entities.Title
	if entitiesTitle == "" {
		entitiesTitle = core.DefaultConfig().Lists.Entities.Title
	}

	definitions := []resource.Definition{
		resource.ListDefinition(ResourceEntities, cfg.ListsBaseURL, entitiesTitle, lists.Entities.EntityType,
			odata.Query{Fields: entitiesFields}),
		errorsDef,
		usersDef,
		resource.ListDefinition(ResourceCurrent, cfg.ListsBaseURL, lists.Current.Title, lists.Current.EntityType,
			odata.Query{Fields: splitFields(directory.FieldsListData)}),
		resource.WebDefinition(ResourceSiteUsers, cfg.UsersBaseURL,
			odata.Query{Fields: splitFields(directory.FieldsSiteUser)}),
	}

	clients := make(map[string]*resource.Client, len(definitions))
	for _, def := range definitions {
		client, err := resource.NewClient(resource.ClientConfig{
			Definition:     def,
			Credentials:    credentials,
			Transport:      adapter,
			RequestTimeout: cfg.RequestTimeout(),
			Logger:         options.logger,
			LoggerProvider: options.loggerProvider,
			Metrics:        options.metrics,
		})
		if err != nil {
			return Resources{}, err
		}
		clients[def.Name] = client
	}
	return Resources{
		Entities:  clients[ResourceEntities],
		Errors:    clients[ResourceErrors],
		Users:     clients[ResourceUsers],
		Current:   clients[ResourceCurrent],
		SiteUsers: clients[ResourceSiteUsers],
	}, nil
}

// openJournal prefers an injected journal, then an injected persistence
// client, then the journal database named in cfg. No journal is fine.
func (c *Client) openJournal(ctx context.Context, cfg core.Config, options clientOptions) error {
	switch {
	case options.journal != nil:
		c.journal = options.journal
		return nil
	case options.persistence != nil:
		store, err := journalStoreFrom(options.persistence)
		if err != nil {
			return err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		c.journal = store
		return nil
	case cfg.Journal.Enabled():
		db, err := sqlstore.Open(ctx, cfg.Journal)
		if err != nil {
			return err
		}
		store, err := journalStoreFrom(db)
		if err != nil {
			_ = db.Close()
			return err
		}
		c.journalDB = db
		c.journal = store
		return nil
	default:
		return nil
	}
}

type journalPruner interface {
	Prune(ctx context.Context, policy sqlstore.RetentionPolicy) (int, error)
}

func (c *Client) retentionPolicy() sqlstore.RetentionPolicy {
	return sqlstore.RetentionPolicy{
		TTL:    c.config.Journal.Retention(),
		RowCap: c.config.Journal.MaxRows,
	}
}

// pruneOnOpen applies the configured retention once. Failures only warn so
// a full or slow journal never blocks startup.
func (c *Client) pruneOnOpen(ctx context.Context) {
	policy := c.retentionPolicy()
	if policy.TTL <= 0 && policy.RowCap <= 0 {
		return
	}
	if _, ok := c.journal.(journalPruner); !ok {
		return
	}
	deleted, err := c.PruneJournal(ctx, policy)
	if err != nil {
		core.Log(ctx, c.logger, core.LevelWarn, "journal prune failed", map[string]any{"error": err.Error()})
		return
	}
	core.Log(ctx, c.logger, core.LevelDebug, "journal pruned", map[string]any{"deleted": deleted})
}

// PruneJournal removes journal entries outside policy. A zero policy uses the
// configured retention.
func (c *Client) PruneJournal(ctx context.Context, policy sqlstore.RetentionPolicy) (int, error) {
	pruner, ok := c.journal.(journalPruner)
	if !ok {
		return 0, core.NewBadInput("splist: journal does not support pruning", nil)
	}
	if policy.TTL <= 0 && policy.RowCap <= 0 {
		policy = c.retentionPolicy()
	}
	if policy.TTL <= 0 && policy.RowCap <= 0 {
		return 0, core.NewBadInput("splist: no journal retention configured", nil)
	}
	return pruner.Prune(ctx, policy)
}

func journalStoreFrom(client *persistence.Client) (*sqlstore.JournalStore, error) {
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		return nil, err
	}
	return factory.JournalStore(), nil
}

func resolveProfileCache(options clientOptions) (repositorycache.CacheService, error) {
	if options.noProfileCache {
		return nil, nil
	}
	if options.profileCache != nil {
		return options.profileCache, nil
	}
	config := repositorycache.DefaultConfig()
	config.TTL = defaultProfileCacheTTL
	cache, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, fmt.Errorf("splist: profile cache: %w", err)
	}
	return cache, nil
}

func splitFields(joined string) []string {
	parts := strings.Split(joined, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, part)
		}
	}
	return fields
}

func (c *Client) currentUserID(ctx context.Context) string {
	if c == nil || c.directory == nil {
		return ""
	}
	return c.directory.UserID(ctx)
}

// Subscribe registers the command and query handlers on the go-command
// dispatcher. Close the returned bus to unsubscribe them.
func (c *Client) Subscribe() (*gocommand.Bus, error) {
	if c == nil {
		return nil, fmt.Errorf("splist: client is nil")
	}
	bus := gocommand.NewBus(nil)
	err := errors.Join(
		gocommand.RegisterCommand(bus, c.commands.ReportError),
		gocommand.RegisterCommand(bus, c.commands.UpdateProfile),
		gocommand.RegisterCommand(bus, c.commands.ReplacePhoto),
		gocommand.RegisterQuery(bus, c.queries.CurrentUser),
		gocommand.RegisterQuery(bus, c.queries.SearchUsers),
		gocommand.RegisterQuery(bus, c.queries.LoadListData),
		gocommand.RegisterQuery(bus, c.queries.ListErrorJournal),
	)
	if err == nil {
		err = bus.Initialize()
	}
	if err != nil {
		bus.Close()
		return nil, err
	}
	return bus, nil
}

func (c *Client) Config() core.Config {
	if c == nil {
		return core.Config{}
	}
	return c.config
}

func (c *Client) Credentials() *auth.CredentialStore {
	if c == nil {
		return nil
	}
	return c.credentials
}

func (c *Client) Resources() Resources {
	if c == nil {
		return Resources{}
	}
	return c.resources
}

func (c *Client) Reporter() *errorreport.Reporter {
	if c == nil {
		return nil
	}
	return c.reporter
}

func (c *Client) Directory() *directory.Directory {
	if c == nil {
		return nil
	}
	return c.directory
}

func (c *Client) Lists() *directory.ListLoader {
	if c == nil {
		return nil
	}
	return c.lists
}

// Journal is nil when no journal is configured.
func (c *Client) Journal() errorreport.Journal {
	if c == nil {
		return nil
	}
	return c.journal
}

func (c *Client) Commands() Commands {
	if c == nil {
		return Commands{}
	}
	return c.commands
}

func (c *Client) Queries() Queries {
	if c == nil {
		return Queries{}
	}
	return c.queries
}

// Close is safe to call more than once.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		if c.journalDB != nil {
			c.closeErr = c.journalDB.Close()
		}
	})
	return c.closeErr
}
