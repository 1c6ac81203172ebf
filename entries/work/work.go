// Package work is the bibliographic work entry kind: books, articles, letters and
// other works a collection describes, with their titles, contributors and
// publication details.
package work

import (
	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/entry"
)

const (
	EntryType  = "work"
	TableName  = "works"
	SearchCore = "works"
)

// Title types.
const (
	TitleCanonical = "canonical"
	TitleShort     = "short"
	TitleAlternate = "alternate"
)

// Work is the document of a bibliographic work.
type Work struct {
	Type         string                  `json:"type" validate:"required"`
	Titles       []Title                 `json:"titles" validate:"min=1,dive"`
	Authors      []Contributor           `json:"authors" validate:"dive"`
	Contributors []Contributor           `json:"contributors" validate:"dive"`
	Date         entries.DateDescription `json:"date"`
	Publication  Publication             `json:"publication"`
	Series       string                  `json:"series,omitempty"`
	Summary      string                  `json:"summary,omitempty"`
	Keywords     []string                `json:"keywords"`
}

// Title is one of the titles a work is known by.
type Title struct {
	Type     string `json:"type" validate:"required,oneof=canonical short alternate"`
	Lang     string `json:"lang,omitempty"`
	Title    string `json:"title" validate:"required"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Full returns "Title: Subtitle", or the title alone.
func (t Title) Full() string {
	if t.Subtitle == "" {
		return t.Title
	}

	return t.Title + ": " + t.Subtitle
}

// Contributor is a person involved in a work, in a given role (author, editor, translator, ...).
type Contributor struct {
	Role   string             `json:"role" validate:"required"`
	Name   entries.PersonName `json:"name"`
	Person *entry.Ref         `json:"person,omitempty" validate:"omitempty"`
}

// Publication holds the imprint of a work.
type Publication struct {
	Publisher string `json:"publisher,omitempty"`
	Place     string `json:"place,omitempty"`
	Edition   string `json:"edition,omitempty"`
}

// Validate implements repository.Validatable.
func (w Work) Validate() error {
	if err := entries.Validate(w); err != nil {
		return err
	}

	for _, title := range w.Titles {
		if title.Type == TitleCanonical {
			return nil
		}
	}

	return entries.Invalid("a work needs a canonical title")
}

// CanonicalTitle returns the canonical title, or the first title if none is marked canonical.
func (w Work) CanonicalTitle() Title {
	for _, title := range w.Titles {
		if title.Type == TitleCanonical {
			return title
		}
	}

	if len(w.Titles) > 0 {
		return w.Titles[0]
	}

	return Title{}
}
