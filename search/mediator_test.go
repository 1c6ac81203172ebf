package search_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/repository/memstore"
	. "github.com/trc-platform/trc/search" //nolint:revive
	"github.com/trc-platform/trc/testutil"
)

const testCore = "letters"

type letter struct {
	Sender string `json:"sender"`
}

type letterCommand = *repository.ChangeSetCommand[letter]

var errIndexerDown = errors.New("indexer down")

// indexerSpy keeps the latest version of every indexed document per core.
type indexerSpy struct {
	mu      sync.Mutex
	docs    map[string]Document
	calls   int
	deletes []string
	fail    bool
}

func newIndexerSpy() *indexerSpy {
	return &indexerSpy{docs: make(map[string]Document)}
}

func (s *indexerSpy) Index(_ context.Context, core string, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.fail {
		return errIndexerDown
	}

	for _, doc := range docs {
		s.docs[core+"/"+doc[FieldID].(string)] = doc
	}

	return nil
}

func (s *indexerSpy) Delete(_ context.Context, core string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.fail {
		return errIndexerDown
	}

	for _, id := range ids {
		delete(s.docs, core+"/"+id)
		s.deletes = append(s.deletes, id)
	}

	return nil
}

func (s *indexerSpy) doc(id string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[testCore+"/"+id]

	return doc, ok
}

func (s *indexerSpy) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.docs)
}

func adaptLetter(doc repository.Document[letter]) (Document, error) {
	return BaseFields(doc, "letter").With("sender", doc.Value.Sender), nil
}

func givenLetterRepository(t *testing.T) *repository.Repository[letter, letterCommand] {
	repo, err := repository.New[letter, letterCommand](memstore.New(), repository.NewChangeSetCommand[letter])
	require.NoError(t, err, "error in test setup")

	return repo
}

func givenLetterWasWritten(t *testing.T, repo *repository.Repository[letter, letterCommand], sender string) repository.Document[letter] {
	cmd, err := repo.Create()
	require.NoError(t, err)
	require.NoError(t, cmd.ChangeSet().Set("sender", sender))

	doc, err := cmd.Execute(context.Background())
	require.NoError(t, err, "error in arranging test data")

	return doc
}

func Test_Mediator_IndexesCommittedChanges(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := givenLetterRepository(t)
	first, second := newIndexerSpy(), newIndexerSpy()
	mediator, err := NewMediator[letter](testCore, adaptLetter, WithIndexer(first), WithIndexer(second))
	require.NoError(t, err)
	mediator.Attach(repo)

	// act
	doc := givenLetterWasWritten(t, repo, "Keats")
	edit, err := repo.Edit(ctx, doc.ID)
	require.NoError(t, err)
	require.NoError(t, edit.ChangeSet().Set("sender", "Shelley"))
	_, err = edit.Execute(ctx)
	require.NoError(t, err)
	repo.Flush()

	// assert
	for _, spy := range []*indexerSpy{first, second} {
		indexed, ok := spy.doc(doc.ID)
		require.True(t, ok)
		assert.Equal(t, "Shelley", indexed["sender"])
		assert.Equal(t, "letter", indexed[FieldEntryType])
		assert.Equal(t, entry.NewID("letter", doc.ID).Token(), indexed[FieldToken])
	}
}

func Test_Mediator_RemovesDeletedDocuments(t *testing.T) {
	// setup
	repo := givenLetterRepository(t)
	spy := newIndexerSpy()
	mediator, err := NewMediator[letter](testCore, adaptLetter, WithIndexer(spy))
	require.NoError(t, err)
	mediator.Attach(repo)

	// arrange
	doc := givenLetterWasWritten(t, repo, "Byron")
	repo.Flush()

	// act
	require.NoError(t, repo.Delete(context.Background(), doc.ID))
	repo.Flush()

	// assert
	_, ok := spy.doc(doc.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{doc.ID}, spy.deletes)
}

func Test_Mediator_When_IndexerFails(t *testing.T) {
	// setup
	logger, logSpy := testutil.NewLogger()
	metrics := testutil.NewMetricsCollectorSpy()
	repo := givenLetterRepository(t)
	failing, healthy := newIndexerSpy(), newIndexerSpy()
	failing.fail = true

	mediator, err := NewMediator[letter](testCore, adaptLetter,
		WithIndexer(failing),
		WithIndexer(healthy),
		WithLogger(logger),
		WithMetrics(metrics),
	)
	require.NoError(t, err)
	mediator.Attach(repo)

	// act
	doc := givenLetterWasWritten(t, repo, "Wordsworth")
	repo.Flush()

	// assert
	stored, err := repo.Get(context.Background(), doc.ID)
	assert.NoError(t, err, "the write is not affected by indexing failures")
	assert.Equal(t, "Wordsworth", stored.Value.Sender)

	_, ok := healthy.doc(doc.ID)
	assert.True(t, ok)
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelError, "search indexing failed", "document_id"))
	assert.Equal(t, 1, metrics.CounterCount(MetricIndexTotal, map[string]string{LabelStatus: StatusError}))
	assert.Equal(t, 1, metrics.CounterCount(MetricIndexTotal, map[string]string{LabelStatus: StatusSuccess}))
}

func Test_Mediator_Push_When_AdapterFails(t *testing.T) {
	spy := newIndexerSpy()
	mediator, err := NewMediator[letter](testCore, func(repository.Document[letter]) (Document, error) {
		return nil, errors.New("no sender")
	}, WithIndexer(spy))
	require.NoError(t, err)

	err = mediator.Push(context.Background(), repository.UpdateEvent[letter]{
		Kind:  repository.EventCreated,
		ID:    "l1",
		After: &repository.Document[letter]{ID: "l1"},
	})

	assert.ErrorIs(t, err, ErrAdaptingDocumentFailed)
	assert.Zero(t, spy.calls)
}

func Test_Mediator_Reindex_PushesAllDocumentsInBatches(t *testing.T) {
	// setup
	repo := givenLetterRepository(t)
	spy := newIndexerSpy()
	mediator, err := NewMediator[letter](testCore, adaptLetter, WithIndexer(spy), WithBatchSize(2))
	require.NoError(t, err)

	// arrange
	for _, sender := range []string{"a", "b", "c", "d", "e"} {
		givenLetterWasWritten(t, repo, sender)
	}

	// act
	count, err := mediator.Reindex(context.Background(), repo)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 5, spy.size())
	assert.Equal(t, 3, spy.calls)
}

func Test_Mediator_Reindex_When_NoIndexers(t *testing.T) {
	// setup
	repo := givenLetterRepository(t)
	mediator, err := NewMediator[letter](testCore, adaptLetter)
	require.NoError(t, err)

	// arrange
	givenLetterWasWritten(t, repo, "Keats")

	// act
	count, err := mediator.Reindex(context.Background(), repo)

	// assert
	assert.NoError(t, err)
	assert.Zero(t, count)
}

func Test_NewMediator_ValidatesInput(t *testing.T) {
	_, err := NewMediator[letter]("", adaptLetter)
	assert.ErrorIs(t, err, ErrEmptyCore)

	_, err = NewMediator[letter](testCore, nil)
	assert.ErrorIs(t, err, ErrNilAdapter)

	_, err = NewMediator[letter](testCore, adaptLetter, WithIndexer(nil))
	assert.ErrorIs(t, err, ErrNilIndexer)

	_, err = NewMediator[letter](testCore, adaptLetter, WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func Test_BaseFields(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := repository.Document[letter]{ID: "l1", Version: 3, CreatedAt: created, ModifiedAt: created.Add(time.Hour)}

	fields := BaseFields(doc, "letter").With("empty", "").With("none", nil)

	assert.Equal(t, Document{
		FieldID:        "l1",
		FieldEntryType: "letter",
		FieldToken:     entry.NewID("letter", "l1").Token(),
		FieldVersion:   uint(3),
		FieldCreated:   "2024-05-01T12:00:00Z",
		FieldModified:  "2024-05-01T13:00:00Z",
	}, fields)
}
