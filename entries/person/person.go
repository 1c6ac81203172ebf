// Package person is the biographical person entry kind.
package person

import (
	"github.com/trc-platform/trc/entries"
)

const (
	EntryType  = "person"
	TableName  = "people"
	SearchCore = "people"
)

// Person is the document of a biographical entry.
type Person struct {
	Name     entries.PersonName   `json:"name"`
	AltNames []entries.PersonName `json:"altNames"`
	Birth    Event                `json:"birth"`
	Death    Event                `json:"death"`
	Events   []Event              `json:"events" validate:"dive"`
	Summary  string               `json:"summary,omitempty"`
}

// Event is a dated, located event in a person's life.
type Event struct {
	Type        string                  `json:"type,omitempty"`
	Title       string                  `json:"title,omitempty"`
	Date        entries.DateDescription `json:"date"`
	Location    string                  `json:"location,omitempty"`
	Description string                  `json:"description,omitempty"`
}

// Validate implements repository.Validatable.
func (p Person) Validate() error {
	if err := entries.Validate(p); err != nil {
		return err
	}

	if p.Name.FamilyName == "" && p.Name.DisplayName == "" {
		return entries.Invalid("a person needs a family or display name")
	}

	return nil
}

// Lifespan renders "birth-death" from the display forms of both dates.
func (p Person) Lifespan() string {
	birth, death := p.Birth.Date.Display(), p.Death.Date.Display()
	if birth == "" && death == "" {
		return ""
	}

	return birth + "-" + death
}
