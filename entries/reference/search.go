package reference

import (
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

// Adapt maps a stored bibliographic reference onto its search document.
func Adapt(doc repository.Document[Reference]) (search.Document, error) {
	r := doc.Value

	associated := make([]string, 0, len(r.Associated))
	for _, ref := range r.Associated {
		associated = append(associated, ref.Token())
	}

	return search.BaseFields(doc, EntryType).
		With("type", r.Type).
		With("work_token", r.Work.Token()).
		With("work_label", r.Work.Label).
		With("citation", r.Citation.String()).
		With("text", r.Text).
		With("summary", r.Summary).
		With("associated_entries", associated), nil
}
