// Package memstore provides an in-memory repository.Store.
//
// It implements the same semantics as the PostgreSQL store (duplicate ids,
// optimistic version checks, ordered listing) and is used by tests and by
// deployments that do not need durable storage.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/trc-platform/trc/repository"
)

// Store keeps records in a concurrent map. The zero value is not usable, use New.
type Store struct {
	records *xsync.MapOf[string, repository.Record]
	writeMu sync.Mutex
}

// New creates an empty Store.
func New() *Store {
	return &Store{records: xsync.NewMapOf[string, repository.Record]()}
}

// Get implements repository.Store.
func (s *Store) Get(ctx context.Context, id string) (repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return repository.Record{}, err
	}

	rec, ok := s.records.Load(id)
	if !ok {
		return repository.Record{}, repository.ErrDocumentNotFound
	}

	return clone(rec), nil
}

// Insert implements repository.Store.
func (s *Store) Insert(ctx context.Context, rec repository.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, loaded := s.records.LoadOrStore(rec.ID, clone(rec)); loaded {
		return repository.ErrDuplicateID
	}

	return nil
}

// Update implements repository.Store.
func (s *Store) Update(ctx context.Context, rec repository.Record, expectedVersion uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, ok := s.records.Load(rec.ID)
	if !ok {
		return repository.ErrDocumentNotFound
	}

	if stored.Version != expectedVersion {
		return repository.ErrConcurrencyConflict
	}

	s.records.Store(rec.ID, clone(rec))

	return nil
}

// Delete implements repository.Store.
func (s *Store) Delete(ctx context.Context, id string, expectedVersion uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, ok := s.records.Load(id)
	if !ok {
		return repository.ErrDocumentNotFound
	}

	if stored.Version != expectedVersion {
		return repository.ErrConcurrencyConflict
	}

	s.records.Delete(id)

	return nil
}

// List implements repository.Store.
func (s *Store) List(ctx context.Context, page repository.Page) ([]repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]repository.Record, 0, s.records.Size())
	s.records.Range(func(_ string, rec repository.Record) bool {
		records = append(records, clone(rec))
		return true
	})

	slices.SortFunc(records, func(a, b repository.Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	offset := max(page.Offset, 0)
	if offset >= len(records) {
		return []repository.Record{}, nil
	}

	records = records[offset:]

	if page.Limit > 0 && page.Limit < len(records) {
		records = records[:page.Limit]
	}

	return records, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return s.records.Size()
}

func clone(rec repository.Record) repository.Record {
	rec.Document = slices.Clone(rec.Document)
	return rec
}
