package relationship

import (
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

// Adapt maps a stored relationship onto its search document.
func Adapt(doc repository.Document[Relationship]) (search.Document, error) {
	r := doc.Value

	return search.BaseFields(doc, EntryType).
		With("type", r.Type).
		With("source_token", r.Source.Token()).
		With("source_type", r.Source.Type).
		With("source_label", r.Source.Label).
		With("target_token", r.Target.Token()).
		With("target_type", r.Target.Type).
		With("target_label", r.Target.Label).
		With("date", r.Date.Value).
		With("description", r.Description), nil
}
