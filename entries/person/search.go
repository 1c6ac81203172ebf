package person

import (
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

// Adapt maps a stored person onto its search document.
func Adapt(doc repository.Document[Person]) (search.Document, error) {
	p := doc.Value

	altNames := make([]string, 0, len(p.AltNames))
	for _, name := range p.AltNames {
		altNames = append(altNames, name.Display())
	}

	events := make([]string, 0, len(p.Events))
	for _, event := range p.Events {
		events = append(events, event.Title)
	}

	return search.BaseFields(doc, EntryType).
		With("name", p.Name.Display()).
		With("name_sort", p.Name.Sortable()).
		With("alt_names", altNames).
		With("birth_date", p.Birth.Date.Value).
		With("birth_place", p.Birth.Location).
		With("death_date", p.Death.Date.Value).
		With("death_place", p.Death.Location).
		With("lifespan", p.Lifespan()).
		With("events", events).
		With("summary", p.Summary), nil
}
