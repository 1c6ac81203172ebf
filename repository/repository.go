package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	operationGet    = "get"
	operationCreate = "create"
	operationEdit   = "edit"
	operationDelete = "delete"
	operationList   = "list"

	defaultRepositoryName = "documents"
)

// Option defines a functional option for configuring a Repository.
type Option func(*settings) error

type settings struct {
	obs          observability
	newID        func() (string, error)
	now          func() time.Time
	retryOptions []RetryOption
}

// WithName sets the name used in log records and metric labels, typically the entry type.
func WithName(name string) Option {
	return func(s *settings) error {
		if name != "" {
			s.obs.name = name
		}

		return nil
	}
}

// WithLogger sets the logger for the Repository.
//
// Info level: operations with durations, vetoed updates
// Warn level: retried concurrency conflicts
// Error level: failing operations and panicking observers.
func WithLogger(logger Logger) Option {
	return func(s *settings) error {
		s.obs.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(s *settings) error {
		s.obs.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Repository.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *settings) error {
		s.obs.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Repository.
// Get, create, edit, delete and list run inside a span; the stores called within see the span context.
func WithTracing(collector TracingCollector) Option {
	return func(s *settings) error {
		s.obs.tracingCollector = collector
		return nil
	}
}

// WithIDGenerator replaces the default UUIDv7 id generator.
func WithIDGenerator(generate func() (string, error)) Option {
	return func(s *settings) error {
		if generate != nil {
			s.newID = generate
		}

		return nil
	}
}

// WithClock replaces time.Now for CreatedAt / ModifiedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) error {
		if now != nil {
			s.now = now
		}

		return nil
	}
}

// WithRetryOptions configures how edits retry after concurrency conflicts.
func WithRetryOptions(options ...RetryOption) Option {
	return func(s *settings) error {
		s.retryOptions = append(s.retryOptions, options...)
		return nil
	}
}

// now truncates to the microsecond resolution of PostgreSQL timestamps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// Repository is the CRUD façade over a Store for documents of type T.
// C is the edit command type produced by its EditCommandFactory.
type Repository[T any, C any] struct {
	store        Store
	newCommand   EditCommandFactory[T, C]
	obs          observability
	newID        func() (string, error)
	now          func() time.Time
	retryOptions []RetryOption
	notifier     *notifier[T]
}

// New creates a Repository storing documents in store and editing them with commands from factory.
func New[T any, C any](store Store, factory EditCommandFactory[T, C], options ...Option) (*Repository[T, C], error) {
	if store == nil {
		return nil, ErrNilStore
	}

	if factory == nil {
		return nil, ErrNilCommandFactory
	}

	s := settings{
		obs:   observability{name: defaultRepositoryName},
		newID: newUUIDv7,
		now:   now,
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return nil, err
		}
	}

	return &Repository[T, C]{
		store:        store,
		newCommand:   factory,
		obs:          s.obs,
		newID:        s.newID,
		now:          s.now,
		retryOptions: append(s.retryOptions, withObservability(s.obs)),
		notifier:     newNotifier[T](s.obs),
	}, nil
}

// Name returns the name the repository uses in logs and metrics.
func (r *Repository[T, C]) Name() string {
	return r.obs.name
}

// Get returns the stored document with the given id.
func (r *Repository[T, C]) Get(ctx context.Context, id string) (Document[T], error) {
	start := time.Now()
	ctx, span := r.obs.startSpan(ctx, operationGet, map[string]string{SpanAttrDocumentID: id})

	doc, err := r.get(ctx, id)
	duration := time.Since(start)
	r.obs.recordOperation(ctx, operationGet, duration, err)
	r.obs.finishSpan(span, duration, err, versionAttr(doc.Version, err))

	return doc, err
}

func (r *Repository[T, C]) get(ctx context.Context, id string) (Document[T], error) {
	if id == "" {
		return Document[T]{}, ErrEmptyDocumentID
	}

	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return Document[T]{}, err
	}

	return decodeDocument[T](rec)
}

// Create returns an edit command for a new document with a freshly generated id.
func (r *Repository[T, C]) Create() (C, error) {
	id, err := r.newID()
	if err != nil {
		var zero C
		return zero, errors.Join(ErrGeneratingIDFailed, err)
	}

	return r.newCommand(id, nil, &createStrategy[T, C]{repo: r, id: id}), nil
}

// Edit returns an edit command for the stored document with the given id.
func (r *Repository[T, C]) Edit(ctx context.Context, id string) (C, error) {
	doc, err := r.Get(ctx, id)
	if err != nil {
		var zero C
		return zero, err
	}

	current := doc.Value

	return r.newCommand(id, &current, &editStrategy[T, C]{repo: r, id: id}), nil
}

// Delete removes the document with the given id.
// The delete is conditional on the version the before-observers saw; a concurrent edit
// in between is retried with exponential backoff like edits are.
func (r *Repository[T, C]) Delete(ctx context.Context, id string) error {
	start := time.Now()
	ctx, span := r.obs.startSpan(ctx, operationDelete, map[string]string{SpanAttrDocumentID: id})

	_, err := RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return r.delete(ctx, id)
	}, r.retryOptions...)

	duration := time.Since(start)
	r.obs.recordOperation(ctx, operationDelete, duration, err)
	r.obs.finishSpan(span, duration, err, nil)

	if err != nil {
		r.obs.logError(ctx, logMsgOperation+operationDelete, err, logAttrDocumentID, id)
		return err
	}

	r.obs.logInfo(ctx, logMsgOperation+operationDelete,
		logAttrDocumentID, id,
		logAttrDurationMS, toMilliseconds(duration))

	return nil
}

func (r *Repository[T, C]) delete(ctx context.Context, id string) error {
	before, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	event := UpdateEvent[T]{Kind: EventDeleted, ID: id, Before: &before}
	if err := r.notifier.notifyBefore(ctx, event); err != nil {
		return err
	}

	unlock := r.notifier.sequence(id)
	defer unlock()

	if err := r.store.Delete(ctx, id, before.Version); err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			r.obs.incrementCounter(ctx, MetricConcurrencyConflict, r.obs.labels(operationDelete, StatusError))
		}

		return err
	}

	r.notifier.notifyAfter(ctx, event)

	return nil
}

// ListAll returns all stored documents ordered by creation time.
func (r *Repository[T, C]) ListAll(ctx context.Context) ([]Document[T], error) {
	return r.List(ctx, Page{})
}

// List returns one page of stored documents ordered by creation time.
func (r *Repository[T, C]) List(ctx context.Context, page Page) ([]Document[T], error) {
	start := time.Now()
	ctx, span := r.obs.startSpan(ctx, operationList, nil)

	docs, err := r.list(ctx, page)
	duration := time.Since(start)
	r.obs.recordOperation(ctx, operationList, duration, err)
	r.obs.finishSpan(span, duration, err, map[string]string{SpanAttrCount: strconv.Itoa(len(docs))})

	return docs, err
}

func (r *Repository[T, C]) list(ctx context.Context, page Page) ([]Document[T], error) {
	records, err := r.store.List(ctx, page)
	if err != nil {
		return nil, err
	}

	docs := make([]Document[T], 0, len(records))
	for _, rec := range records {
		doc, err := decodeDocument[T](rec)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// BeforeUpdate registers an observer that runs before every write and may veto it.
// Observers run in registration order. The returned func unregisters the observer.
func (r *Repository[T, C]) BeforeUpdate(observer BeforeUpdateObserver[T]) func() {
	return r.notifier.before.add(observer)
}

// AfterUpdate registers an observer that is notified asynchronously after every committed write.
// Each observer receives the events of one document in commit order and never runs
// concurrently with itself. The returned func unregisters the observer; events already
// queued for it are still delivered.
func (r *Repository[T, C]) AfterUpdate(observer AfterUpdateObserver[T]) func() {
	return r.notifier.subscribe(observer)
}

// Flush blocks until all after-update notifications queued so far were delivered.
// Writes running concurrently with Flush may extend the wait.
func (r *Repository[T, C]) Flush() {
	r.notifier.wait()
}

// commit runs a mutator against before (nil for creates) and writes the result.
func (r *Repository[T, C]) commit(ctx context.Context, id string, before *Document[T], mutate Mutator[T]) (Document[T], error) {
	var original T
	if before != nil {
		original = before.Value
	}

	value, err := mutate(original)
	if err != nil {
		return Document[T]{}, errors.Join(ErrMutationFailed, err)
	}

	if err := validate(value); err != nil {
		return Document[T]{}, err
	}

	now := r.now()
	after := Document[T]{ID: id, Version: 1, Value: value, CreatedAt: now, ModifiedAt: now}
	event := UpdateEvent[T]{Kind: EventCreated, ID: id, After: &after}

	if before != nil {
		after.Version = before.Version + 1
		after.CreatedAt = before.CreatedAt
		event.Kind = EventUpdated
		event.Before = before
	}

	if err := r.notifier.notifyBefore(ctx, event); err != nil {
		return Document[T]{}, err
	}

	rec, err := encodeDocument(after)
	if err != nil {
		return Document[T]{}, err
	}

	unlock := r.notifier.sequence(id)
	defer unlock()

	if before == nil {
		err = r.store.Insert(ctx, rec)
	} else {
		err = r.store.Update(ctx, rec, before.Version)
	}

	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			r.obs.incrementCounter(ctx, MetricConcurrencyConflict, r.obs.labels(operationEdit, StatusError))
		}

		return Document[T]{}, err
	}

	r.notifier.notifyAfter(ctx, event)

	return after, nil
}

type createStrategy[T any, C any] struct {
	repo *Repository[T, C]
	id   string
}

// Update applies mutate to the zero value and inserts the result as version 1.
func (s *createStrategy[T, C]) Update(ctx context.Context, mutate Mutator[T]) (Document[T], error) {
	start := time.Now()
	ctx, span := s.repo.obs.startSpan(ctx, operationCreate, map[string]string{SpanAttrDocumentID: s.id})

	doc, err := s.repo.commit(ctx, s.id, nil, mutate)
	duration := time.Since(start)
	s.repo.obs.finishSpan(span, duration, err, versionAttr(doc.Version, err))
	s.finish(ctx, doc, err, duration)

	return doc, err
}

func (s *createStrategy[T, C]) finish(ctx context.Context, doc Document[T], err error, duration time.Duration) {
	s.repo.obs.recordOperation(ctx, operationCreate, duration, err)

	if err != nil {
		s.repo.obs.logError(ctx, logMsgOperation+operationCreate, err, logAttrDocumentID, s.id)
		return
	}

	s.repo.obs.logInfo(ctx, logMsgOperation+operationCreate,
		logAttrDocumentID, doc.ID,
		logAttrVersion, doc.Version,
		logAttrDurationMS, toMilliseconds(duration))
}

type editStrategy[T any, C any] struct {
	repo *Repository[T, C]
	id   string
}

// Update reads the freshest stored version, applies mutate and writes conditionally on
// that version. Concurrency conflicts are retried with exponential backoff.
func (s *editStrategy[T, C]) Update(ctx context.Context, mutate Mutator[T]) (Document[T], error) {
	start := time.Now()
	ctx, span := s.repo.obs.startSpan(ctx, operationEdit, map[string]string{SpanAttrDocumentID: s.id})
	var doc Document[T]

	_, err := RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		before, err := s.repo.get(ctx, s.id)
		if err != nil {
			return err
		}

		doc, err = s.repo.commit(ctx, s.id, &before, mutate)

		return err
	}, s.repo.retryOptions...)

	duration := time.Since(start)
	s.repo.obs.recordOperation(ctx, operationEdit, duration, err)
	s.repo.obs.finishSpan(span, duration, err, versionAttr(doc.Version, err))

	if err != nil {
		s.repo.obs.logError(ctx, logMsgOperation+operationEdit, err, logAttrDocumentID, s.id)
		return Document[T]{}, err
	}

	s.repo.obs.logInfo(ctx, logMsgOperation+operationEdit,
		logAttrDocumentID, doc.ID,
		logAttrVersion, doc.Version,
		logAttrDurationMS, toMilliseconds(duration))

	return doc, nil
}

func versionAttr(version uint, err error) map[string]string {
	if err != nil {
		return nil
	}

	return map[string]string{SpanAttrVersion: strconv.FormatUint(uint64(version), 10)}
}
