package search

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trc-platform/trc/repository"
)

const defaultBatchSize = 100

var (
	// ErrEmptyCore is returned when a mediator is created without a core name.
	ErrEmptyCore = errors.New("search core must not be empty")

	// ErrNilAdapter is returned when a mediator is created without an adapter.
	ErrNilAdapter = errors.New("search adapter must not be nil")

	// ErrNilIndexer is returned when a nil indexer is configured.
	ErrNilIndexer = errors.New("indexer must not be nil")

	// ErrInvalidBatchSize is returned for batch sizes below one.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrAdaptingDocumentFailed is returned when the adapter fails for a document.
	ErrAdaptingDocumentFailed = errors.New("adapting document for search failed")

	// ErrIndexingFailed is returned when at least one indexer failed.
	ErrIndexingFailed = errors.New("indexing failed")
)

// Option configures a Mediator.
type Option func(*settings) error

type settings struct {
	indexers         []Indexer
	batchSize        int
	logger           repository.Logger
	contextualLogger repository.ContextualLogger
	metricsCollector repository.MetricsCollector
}

// WithIndexer adds an indexer that receives every pushed change.
func WithIndexer(indexer Indexer) Option {
	return func(s *settings) error {
		if indexer == nil {
			return ErrNilIndexer
		}

		s.indexers = append(s.indexers, indexer)

		return nil
	}
}

// WithBatchSize sets how many documents Reindex pushes per indexer call.
func WithBatchSize(size int) Option {
	return func(s *settings) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}

		s.batchSize = size

		return nil
	}
}

// WithLogger sets a logger for indexing failures and reindex progress.
func WithLogger(logger repository.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger; it takes precedence over WithLogger.
func WithContextualLogger(logger repository.ContextualLogger) Option {
	return func(s *settings) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets a metrics collector for indexer calls.
func WithMetrics(collector repository.MetricsCollector) Option {
	return func(s *settings) error {
		s.metricsCollector = collector
		return nil
	}
}

// Mediator pushes the changes of one repository into one search core of every indexer.
type Mediator[T any] struct {
	core             string
	adapter          Adapter[T]
	indexers         []Indexer
	batchSize        int
	logger           repository.Logger
	contextualLogger repository.ContextualLogger
	metricsCollector repository.MetricsCollector
}

// NewMediator creates a Mediator writing adapted documents into core.
// A Mediator without indexers is valid and does nothing.
func NewMediator[T any](core string, adapter Adapter[T], options ...Option) (*Mediator[T], error) {
	if core == "" {
		return nil, ErrEmptyCore
	}

	if adapter == nil {
		return nil, ErrNilAdapter
	}

	s := settings{batchSize: defaultBatchSize}
	for _, option := range options {
		if err := option(&s); err != nil {
			return nil, err
		}
	}

	return &Mediator[T]{
		core:             core,
		adapter:          adapter,
		indexers:         s.indexers,
		batchSize:        s.batchSize,
		logger:           s.logger,
		contextualLogger: s.contextualLogger,
		metricsCollector: s.metricsCollector,
	}, nil
}

// Core returns the name of the search core the mediator writes to.
func (m *Mediator[T]) Core() string {
	return m.core
}

// Attach registers the mediator as after-update observer of source and returns the unregister func.
func (m *Mediator[T]) Attach(source Observable[T]) func() {
	return source.AfterUpdate(m.OnUpdate)
}

// OnUpdate is a repository.AfterUpdateObserver. Failures are logged, not returned.
func (m *Mediator[T]) OnUpdate(ctx context.Context, event repository.UpdateEvent[T]) {
	if err := m.Push(ctx, event); err != nil {
		m.logError(ctx, logMsgIndexFailed, err, logAttrCore, m.core, logAttrDocumentID, event.ID)
	}
}

// Push applies a single update event to all indexers.
func (m *Mediator[T]) Push(ctx context.Context, event repository.UpdateEvent[T]) error {
	if len(m.indexers) == 0 {
		return nil
	}

	switch {
	case event.Kind == repository.EventDeleted:
		return m.fanOut(ctx, operationDelete, func(ctx context.Context, indexer Indexer) error {
			return indexer.Delete(ctx, m.core, []string{event.ID})
		})

	case event.After != nil:
		doc, err := m.adapt(ctx, *event.After)
		if err != nil {
			return err
		}

		return m.index(ctx, []Document{doc})

	default:
		return nil
	}
}

// Reindex pushes every document lister returns to all indexers, batchSize documents
// at a time, and returns the number of documents pushed.
// Documents the adapter rejects are logged and skipped. Without indexers nothing is
// listed and the count is zero.
func (m *Mediator[T]) Reindex(ctx context.Context, lister Lister[T]) (int, error) {
	if len(m.indexers) == 0 {
		return 0, nil
	}

	start := time.Now()
	total := 0

	for offset := 0; ; offset += m.batchSize {
		page, err := lister.List(ctx, repository.Page{Limit: m.batchSize, Offset: offset})
		if err != nil {
			return total, err
		}

		batch := make([]Document, 0, len(page))
		for _, stored := range page {
			doc, err := m.adapt(ctx, stored)
			if err != nil {
				continue
			}

			batch = append(batch, doc)
		}

		if len(batch) > 0 {
			if err := m.index(ctx, batch); err != nil {
				return total, err
			}
		}

		total += len(batch)

		if len(page) < m.batchSize {
			break
		}
	}

	m.logInfo(ctx, logMsgReindexFinished,
		logAttrCore, m.core,
		logAttrCount, total,
		logAttrDurationMS, toMilliseconds(time.Since(start)))
	m.recordOperation(ctx, operationReindex, time.Since(start), nil)

	return total, nil
}

func (m *Mediator[T]) adapt(ctx context.Context, stored repository.Document[T]) (Document, error) {
	doc, err := m.adapter(stored)
	if err != nil {
		m.logError(ctx, logMsgAdaptFailed, err, logAttrCore, m.core, logAttrDocumentID, stored.ID)
		return nil, errors.Join(ErrAdaptingDocumentFailed, err)
	}

	return doc, nil
}

func (m *Mediator[T]) index(ctx context.Context, docs []Document) error {
	err := m.fanOut(ctx, operationIndex, func(ctx context.Context, indexer Indexer) error {
		return indexer.Index(ctx, m.core, docs)
	})

	if err == nil {
		m.logDebug(ctx, logMsgIndexed, logAttrCore, m.core, logAttrCount, len(docs))
	}

	return err
}

// fanOut calls push for every indexer concurrently. A failing indexer does not cancel the others.
func (m *Mediator[T]) fanOut(ctx context.Context, operation string, push func(context.Context, Indexer) error) error {
	var g errgroup.Group

	for _, indexer := range m.indexers {
		g.Go(func() error {
			start := time.Now()
			err := push(ctx, indexer)
			m.recordOperation(ctx, operation, time.Since(start), err)

			if err != nil {
				m.logError(ctx, logMsgIndexFailed, err, logAttrCore, m.core, logAttrOperation, operation)
				return errors.Join(ErrIndexingFailed, err)
			}

			return nil
		})
	}

	return g.Wait()
}
