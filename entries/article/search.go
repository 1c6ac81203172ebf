package article

import (
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

// Adapt maps a stored article onto its search document.
func Adapt(doc repository.Document[Article]) (search.Document, error) {
	a := doc.Value

	authors := make([]string, 0, len(a.Authors))
	for _, author := range a.Authors {
		authors = append(authors, author.Name.Display())
	}

	references := make([]string, 0, len(a.References))
	for _, ref := range a.References {
		references = append(references, ref.Token())
	}

	return search.BaseFields(doc, EntryType).
		With("title", a.Title).
		With("type", a.Type).
		With("authors", authors).
		With("abstract", a.Abstract).
		With("body", a.Body).
		With("references", references).
		With("status", a.Publication.Status).
		With("published", a.Publication.Published.Value), nil
}
