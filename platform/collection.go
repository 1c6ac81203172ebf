package platform

import (
	"context"
	"time"

	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

// Entry is the type-erased form of a stored document of any kind.
type Entry struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Token      string    `json:"token"`
	Version    uint      `json:"version"`
	Value      any       `json:"value"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Collection gives kind-independent access to the entries of one kind.
type Collection interface {
	EntryType() string
	SearchCore() string
	Get(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context, page repository.Page) ([]Entry, error)
	Delete(ctx context.Context, id string) error
	CreateSchema(ctx context.Context) error
	Reindex(ctx context.Context) (int, error)
	Flush()
}

type schemaCreator interface {
	CreateSchema(ctx context.Context) error
}

type collection[T any, C any] struct {
	entryType string
	core      string
	store     repository.Store
	repo      *repository.Repository[T, C]
	mediator  *search.Mediator[T]
}

func (c *collection[T, C]) EntryType() string {
	return c.entryType
}

func (c *collection[T, C]) SearchCore() string {
	return c.core
}

func (c *collection[T, C]) Get(ctx context.Context, id string) (Entry, error) {
	doc, err := c.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}

	return c.toEntry(doc), nil
}

func (c *collection[T, C]) List(ctx context.Context, page repository.Page) ([]Entry, error) {
	docs, err := c.repo.List(ctx, page)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, c.toEntry(doc))
	}

	return entries, nil
}

func (c *collection[T, C]) Delete(ctx context.Context, id string) error {
	return c.repo.Delete(ctx, id)
}

// CreateSchema is a no-op for stores without a schema.
func (c *collection[T, C]) CreateSchema(ctx context.Context) error {
	creator, ok := c.store.(schemaCreator)
	if !ok {
		return nil
	}

	return creator.CreateSchema(ctx)
}

func (c *collection[T, C]) Reindex(ctx context.Context) (int, error) {
	return c.mediator.Reindex(ctx, c.repo)
}

func (c *collection[T, C]) Flush() {
	c.repo.Flush()
}

func (c *collection[T, C]) toEntry(doc repository.Document[T]) Entry {
	return Entry{
		ID:         doc.ID,
		Type:       c.entryType,
		Token:      entry.NewID(c.entryType, doc.ID).Token(),
		Version:    doc.Version,
		Value:      doc.Value,
		CreatedAt:  doc.CreatedAt,
		ModifiedAt: doc.ModifiedAt,
	}
}
