package note

import (
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

// Adapt maps a stored note onto its search document.
func Adapt(doc repository.Document[Note]) (search.Document, error) {
	n := doc.Value

	attached := make([]string, 0, len(n.Entries))
	for _, ref := range n.Entries {
		attached = append(attached, ref.Token())
	}

	return search.BaseFields(doc, EntryType).
		With("title", n.Title).
		With("type", n.Type).
		With("content", n.Content).
		With("author", n.Author).
		With("entries", attached).
		With("keywords", n.Keywords), nil
}
