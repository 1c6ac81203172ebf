package work

import (
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

// Adapt maps a stored work onto its search document.
func Adapt(doc repository.Document[Work]) (search.Document, error) {
	w := doc.Value

	titles := make([]string, 0, len(w.Titles))
	for _, title := range w.Titles {
		titles = append(titles, title.Full())
	}

	authors := make([]string, 0, len(w.Authors))
	for _, author := range w.Authors {
		authors = append(authors, author.Name.Display())
	}

	sortAuthor := ""
	if len(w.Authors) > 0 {
		sortAuthor = w.Authors[0].Name.Sortable()
	}

	return search.BaseFields(doc, EntryType).
		With("type", w.Type).
		With("title", w.CanonicalTitle().Full()).
		With("titles", titles).
		With("authors", authors).
		With("author_sort", sortAuthor).
		With("date", w.Date.Value).
		With("date_display", w.Date.Display()).
		With("publisher", w.Publication.Publisher).
		With("publication_place", w.Publication.Place).
		With("series", w.Series).
		With("summary", w.Summary).
		With("keywords", w.Keywords), nil
}
