package search

import (
	"context"
	"time"

	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
)

// Common fields every search document carries.
const (
	FieldID        = "id"
	FieldEntryType = "entry_type"
	FieldToken     = "token"
	FieldVersion   = "version"
	FieldCreated   = "created"
	FieldModified  = "modified"
)

// Document is the flat, schemaless form of an entry inside a search core.
type Document map[string]any

// Adapter turns a stored document into its search Document.
type Adapter[T any] func(doc repository.Document[T]) (Document, error)

// Indexer writes search documents into named cores.
type Indexer interface {
	Index(ctx context.Context, core string, docs []Document) error
	Delete(ctx context.Context, core string, ids []string) error
}

// Lister pages through stored documents, e.g. a *repository.Repository.
type Lister[T any] interface {
	List(ctx context.Context, page repository.Page) ([]repository.Document[T], error)
}

// Observable accepts after-update observers, e.g. a *repository.Repository.
type Observable[T any] interface {
	AfterUpdate(observer repository.AfterUpdateObserver[T]) func()
}

// BaseFields returns a Document holding the fields shared by all entry types.
func BaseFields[T any](doc repository.Document[T], entryType string) Document {
	return Document{
		FieldID:        doc.ID,
		FieldEntryType: entryType,
		FieldToken:     entry.NewID(entryType, doc.ID).Token(),
		FieldVersion:   doc.Version,
		FieldCreated:   doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		FieldModified:  doc.ModifiedAt.UTC().Format(time.RFC3339Nano),
	}
}

// With sets field to value unless value is empty, and returns d.
func (d Document) With(field string, value any) Document {
	switch v := value.(type) {
	case nil:
		return d
	case string:
		if v == "" {
			return d
		}
	case []string:
		if len(v) == 0 {
			return d
		}
	}

	d[field] = value

	return d
}
