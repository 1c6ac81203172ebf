package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/trc-platform/trc/config"
	"github.com/trc-platform/trc/entries/article"
	"github.com/trc-platform/trc/entries/note"
	"github.com/trc-platform/trc/entries/person"
	"github.com/trc-platform/trc/entries/reference"
	"github.com/trc-platform/trc/entries/relationship"
	"github.com/trc-platform/trc/entries/work"
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/repository/memstore"
	"github.com/trc-platform/trc/repository/postgresstore"
	"github.com/trc-platform/trc/search"
	"github.com/trc-platform/trc/search/solr"
)

var (
	// ErrUnknownEntryType is returned for entry types no collection is registered for.
	ErrUnknownEntryType = errors.New("unknown entry type")

	// ErrSearchDisabled is returned by Search when no Solr server is configured and by
	// Reindex when there is no indexer at all.
	ErrSearchDisabled = errors.New("search is not configured")

	// ErrUnknownAdapter is returned for unsupported postgres adapter types.
	ErrUnknownAdapter = errors.New("unknown postgres adapter")

	// ErrDanglingReference is returned when a write refers to an entry that does not resolve.
	ErrDanglingReference = errors.New("referenced entry does not exist")
)

const (
	logMsgOpened       = "collection opened"
	logAttrAdapter     = "adapter"
	logAttrCollections = "collections"
	logAttrIndexing    = "indexing"
)

// Option configures Open.
type Option func(*settings)

type settings struct {
	logger          repository.Logger
	ctxLogger       repository.ContextualLogger
	metrics         repository.MetricsCollector
	tracing         repository.TracingCollector
	indexers        []search.Indexer
	memory          bool
	referenceChecks bool
	repoOptions     []repository.Option
}

// WithLogger sets the logger handed to every store, repository, registry and mediator.
func WithLogger(logger repository.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithContextualLogger sets a context-aware logger for stores, repositories and mediators.
// It takes precedence over WithLogger there.
func WithContextualLogger(logger repository.ContextualLogger) Option {
	return func(s *settings) {
		s.ctxLogger = logger
	}
}

// WithMetrics sets the metrics collector handed to every store, repository and mediator.
func WithMetrics(collector repository.MetricsCollector) Option {
	return func(s *settings) {
		s.metrics = collector
	}
}

// WithTracing sets the tracing collector handed to every store and repository.
func WithTracing(collector repository.TracingCollector) Option {
	return func(s *settings) {
		s.tracing = collector
	}
}

// WithIndexer adds an indexer next to the configured Solr server.
func WithIndexer(indexer search.Indexer) Option {
	return func(s *settings) {
		s.indexers = append(s.indexers, indexer)
	}
}

// WithMemoryStores keeps all entries in memory instead of PostgreSQL.
func WithMemoryStores() Option {
	return func(s *settings) {
		s.memory = true
	}
}

// WithoutReferenceChecks disables the check that relationships, notes and
// references only point to existing entries.
func WithoutReferenceChecks() Option {
	return func(s *settings) {
		s.referenceChecks = false
	}
}

// WithRepositoryOptions appends options to every repository, e.g. a clock or retry settings.
func WithRepositoryOptions(options ...repository.Option) Option {
	return func(s *settings) {
		s.repoOptions = append(s.repoOptions, options...)
	}
}

// Platform holds the repositories of all entry kinds and their shared registry.
type Platform struct {
	Works         *repository.Repository[work.Work, *work.Editor]
	People        *repository.Repository[person.Person, *person.Editor]
	Articles      *repository.Repository[article.Article, *article.Editor]
	Relationships *repository.Repository[relationship.Relationship, *relationship.Editor]
	Notes         *repository.Repository[note.Note, *note.Editor]
	References    *repository.Repository[reference.Reference, *reference.Editor]

	registry    *entry.Registry
	solr        *solr.Client
	indexing    bool
	collections []Collection
	byType      map[string]Collection
	closers     []func()
	closeOnce   sync.Once
}

type builder struct {
	conf     config.Config
	settings settings
	newStore func(table string) (repository.Store, error)
	indexers []search.Indexer
	platform *Platform
}

// Open connects to the configured storage and search backends and builds all collections.
func Open(ctx context.Context, conf config.Config, options ...Option) (*Platform, error) {
	s := settings{referenceChecks: true}
	for _, option := range options {
		option(&s)
	}

	var registryOptions []entry.Option
	if s.logger != nil {
		registryOptions = append(registryOptions, entry.WithLogger(s.logger))
	}

	p := &Platform{
		registry: entry.NewRegistry(registryOptions...),
		byType:   make(map[string]Collection),
	}

	b := &builder{conf: conf, settings: s, indexers: s.indexers, platform: p}

	if err := b.openStorage(ctx); err != nil {
		return nil, err
	}

	if err := b.openSearch(); err != nil {
		p.Close()
		return nil, err
	}

	if err := b.buildCollections(); err != nil {
		p.Close()
		return nil, err
	}

	if s.referenceChecks {
		p.guardReferences()
	}

	p.indexing = len(b.indexers) > 0

	if s.logger != nil {
		adapter := conf.PostgresAdapter
		if s.memory {
			adapter = "memory"
		}

		s.logger.Info(logMsgOpened,
			logAttrAdapter, adapter,
			logAttrCollections, len(p.collections),
			logAttrIndexing, p.indexing)
	}

	return p, nil
}

func (b *builder) openStorage(ctx context.Context) error {
	if b.settings.memory {
		b.newStore = func(string) (repository.Store, error) {
			return memstore.New(), nil
		}

		return nil
	}

	options := func(table string) []postgresstore.Option {
		opts := []postgresstore.Option{postgresstore.WithTableName(table)}
		if b.settings.logger != nil {
			opts = append(opts, postgresstore.WithLogger(b.settings.logger))
		}

		if b.settings.ctxLogger != nil {
			opts = append(opts, postgresstore.WithContextualLogger(b.settings.ctxLogger))
		}

		if b.settings.metrics != nil {
			opts = append(opts, postgresstore.WithMetrics(b.settings.metrics))
		}

		if b.settings.tracing != nil {
			opts = append(opts, postgresstore.WithTracing(b.settings.tracing))
		}

		return opts
	}

	switch b.conf.PostgresAdapter {
	case config.AdapterPGX:
		pool, err := b.conf.OpenPGXPool(ctx)
		if err != nil {
			return err
		}

		b.platform.closers = append(b.platform.closers, pool.Close)
		b.newStore = func(table string) (repository.Store, error) {
			return postgresstore.NewStoreFromPGXPool(pool, options(table)...)
		}

	case config.AdapterSQL:
		db, err := b.conf.OpenSQLDB(ctx)
		if err != nil {
			return err
		}

		b.platform.closers = append(b.platform.closers, func() { _ = db.Close() })
		b.newStore = func(table string) (repository.Store, error) {
			return postgresstore.NewStoreFromSQLDB(db, options(table)...)
		}

	case config.AdapterSQLX:
		db, err := b.conf.OpenSQLX(ctx)
		if err != nil {
			return err
		}

		b.platform.closers = append(b.platform.closers, func() { _ = db.Close() })
		b.newStore = func(table string) (repository.Store, error) {
			return postgresstore.NewStoreFromSQLX(db, options(table)...)
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAdapter, b.conf.PostgresAdapter)
	}

	return nil
}

func (b *builder) openSearch() error {
	if !b.conf.IndexingEnabled() {
		return nil
	}

	options := []solr.Option{
		solr.WithCommitWithin(b.conf.SolrCommitWithin),
		solr.WithTimeout(b.conf.SolrTimeout),
	}
	if b.settings.logger != nil {
		options = append(options, solr.WithLogger(b.settings.logger))
	}

	client, err := solr.New(b.conf.SolrURL, options...)
	if err != nil {
		return err
	}

	b.platform.solr = client
	b.indexers = append(b.indexers, client)

	return nil
}

func (b *builder) buildCollections() error {
	p := b.platform
	var err error

	p.Works, err = addCollection[work.Work, *work.Editor](b,
		work.EntryType, work.TableName, work.SearchCore, work.NewEditor, work.Adapt)
	if err != nil {
		return err
	}

	p.People, err = addCollection[person.Person, *person.Editor](b,
		person.EntryType, person.TableName, person.SearchCore, person.NewEditor, person.Adapt)
	if err != nil {
		return err
	}

	p.Articles, err = addCollection[article.Article, *article.Editor](b,
		article.EntryType, article.TableName, article.SearchCore, article.NewEditor, article.Adapt)
	if err != nil {
		return err
	}

	p.Relationships, err = addCollection[relationship.Relationship, *relationship.Editor](b,
		relationship.EntryType, relationship.TableName, relationship.SearchCore, relationship.NewEditor, relationship.Adapt)
	if err != nil {
		return err
	}

	p.Notes, err = addCollection[note.Note, *note.Editor](b,
		note.EntryType, note.TableName, note.SearchCore, note.NewEditor, note.Adapt)
	if err != nil {
		return err
	}

	p.References, err = addCollection[reference.Reference, *reference.Editor](b,
		reference.EntryType, reference.TableName, reference.SearchCore, reference.NewEditor, reference.Adapt)

	return err
}

func addCollection[T any, C any](
	b *builder,
	entryType, table, core string,
	factory repository.EditCommandFactory[T, C],
	adapter search.Adapter[T],
) (*repository.Repository[T, C], error) {
	store, err := b.newStore(table)
	if err != nil {
		return nil, err
	}

	repoOptions := []repository.Option{repository.WithName(entryType)}
	mediatorOptions := make([]search.Option, 0, len(b.indexers)+2)

	if b.settings.logger != nil {
		repoOptions = append(repoOptions, repository.WithLogger(b.settings.logger))
		mediatorOptions = append(mediatorOptions, search.WithLogger(b.settings.logger))
	}

	if b.settings.ctxLogger != nil {
		repoOptions = append(repoOptions, repository.WithContextualLogger(b.settings.ctxLogger))
		mediatorOptions = append(mediatorOptions, search.WithContextualLogger(b.settings.ctxLogger))
	}

	if b.settings.metrics != nil {
		repoOptions = append(repoOptions, repository.WithMetrics(b.settings.metrics))
		mediatorOptions = append(mediatorOptions, search.WithMetrics(b.settings.metrics))
	}

	if b.settings.tracing != nil {
		repoOptions = append(repoOptions, repository.WithTracing(b.settings.tracing))
	}

	repoOptions = append(repoOptions, b.settings.repoOptions...)

	repo, err := repository.New(store, factory, repoOptions...)
	if err != nil {
		return nil, err
	}

	resolver, err := entry.NewRepositoryResolver[T](entryType, b.conf.BaseURI+"/"+entryType, repo)
	if err != nil {
		return nil, err
	}

	if _, err := b.platform.registry.Register(resolver); err != nil {
		return nil, err
	}

	for _, indexer := range b.indexers {
		mediatorOptions = append(mediatorOptions, search.WithIndexer(indexer))
	}

	mediator, err := search.NewMediator(core, adapter, mediatorOptions...)
	if err != nil {
		return nil, err
	}

	mediator.Attach(repo)

	c := &collection[T, C]{entryType: entryType, core: core, store: store, repo: repo, mediator: mediator}
	b.platform.collections = append(b.platform.collections, c)
	b.platform.byType[entryType] = c

	return repo, nil
}

// Registry returns the registry resolving entries of every kind.
func (p *Platform) Registry() *entry.Registry {
	return p.registry
}

// Collections returns all collections in registration order.
func (p *Platform) Collections() []Collection {
	return p.collections
}

// Collection returns the collection of entryType.
func (p *Platform) Collection(entryType string) (Collection, error) {
	c, ok := p.byType[entryType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntryType, entryType)
	}

	return c, nil
}

// CreateSchemas creates the tables of all collections.
func (p *Platform) CreateSchemas(ctx context.Context) error {
	for _, c := range p.collections {
		if err := c.CreateSchema(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.EntryType(), err)
		}
	}

	return nil
}

// Reindex pushes all entries of the given types, or of every type if none is given,
// to the search indexers. It returns the number of indexed entries per type.
func (p *Platform) Reindex(ctx context.Context, entryTypes ...string) (map[string]int, error) {
	if !p.indexing {
		return nil, ErrSearchDisabled
	}

	targets := p.collections
	if len(entryTypes) > 0 {
		targets = make([]Collection, 0, len(entryTypes))
		for _, entryType := range entryTypes {
			c, err := p.Collection(entryType)
			if err != nil {
				return nil, err
			}

			targets = append(targets, c)
		}
	}

	counts := make(map[string]int, len(targets))
	for _, c := range targets {
		n, err := c.Reindex(ctx)
		counts[c.EntryType()] = n

		if err != nil {
			return counts, fmt.Errorf("%s: %w", c.EntryType(), err)
		}
	}

	return counts, nil
}

// Search queries the Solr core of entryType.
func (p *Platform) Search(ctx context.Context, entryType string, q solr.Query) (solr.Result, error) {
	if p.solr == nil {
		return solr.Result{}, ErrSearchDisabled
	}

	c, err := p.Collection(entryType)
	if err != nil {
		return solr.Result{}, err
	}

	return p.solr.Query(ctx, c.SearchCore(), q)
}

// Flush waits until all pending after-update notifications, including search updates, were delivered.
func (p *Platform) Flush() {
	for _, c := range p.collections {
		c.Flush()
	}
}

// Close flushes pending notifications and releases the database connections.
func (p *Platform) Close() {
	p.closeOnce.Do(func() {
		p.Flush()

		for i := len(p.closers) - 1; i >= 0; i-- {
			p.closers[i]()
		}
	})
}
