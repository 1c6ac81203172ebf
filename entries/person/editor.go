package person

import (
	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/repository"
)

// Editor edits one person through a change set.
type Editor struct {
	*repository.ChangeSetCommand[Person]
}

// NewEditor is the repository.EditCommandFactory of persons.
func NewEditor(id string, current *Person, strategy repository.UpdateStrategy[Person]) *Editor {
	return &Editor{ChangeSetCommand: repository.NewChangeSetCommand(id, current, strategy)}
}

// SetName replaces the name.
func (e *Editor) SetName(name entries.PersonName) error {
	return e.ChangeSet().Set("name", name)
}

// SetFamilyName sets the family name only.
func (e *Editor) SetFamilyName(familyName string) error {
	return e.ChangeSet().Partial("name").Set("familyName", familyName)
}

// SetGivenName sets the given name only.
func (e *Editor) SetGivenName(givenName string) error {
	return e.ChangeSet().Partial("name").Set("givenName", givenName)
}

// AddAltName appends an alternative name (pen name, maiden name, ...).
func (e *Editor) AddAltName(name entries.PersonName) error {
	return e.ChangeSet().Append("altNames", name)
}

// SetBirth sets date and place of birth.
func (e *Editor) SetBirth(date entries.DateDescription, location string) error {
	return e.setLifeEvent("birth", date, location)
}

// SetDeath sets date and place of death.
func (e *Editor) SetDeath(date entries.DateDescription, location string) error {
	return e.setLifeEvent("death", date, location)
}

func (e *Editor) setLifeEvent(field string, date entries.DateDescription, location string) error {
	event := e.ChangeSet().Partial(field)
	if err := event.Set("date", date); err != nil {
		return err
	}

	return event.Set("location", location)
}

// AddEvent appends a life event.
func (e *Editor) AddEvent(event Event) error {
	return e.ChangeSet().Append("events", event)
}

// SetEventDescription sets the description of the event at index.
func (e *Editor) SetEventDescription(index int, description string) error {
	return e.ChangeSet().PartialAt("events", index).Set("description", description)
}

// RemoveEvent removes the event at index.
func (e *Editor) RemoveEvent(index int) error {
	return e.ChangeSet().RemoveAt("events", index)
}

// SetSummary sets the biographical summary.
func (e *Editor) SetSummary(summary string) error {
	return e.ChangeSet().Set("summary", summary)
}
