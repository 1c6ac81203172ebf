// Package article is the article entry kind: scholarly essays, biographies and
// editorial commentary authored inside the collection.
package article

import (
	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/entry"
)

const (
	EntryType  = "article"
	TableName  = "articles"
	SearchCore = "articles"
)

// Publication states.
const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusPublished = "published"
)

// Article is the document of an article.
type Article struct {
	Title       string      `json:"title" validate:"required"`
	Type        string      `json:"type,omitempty"`
	Authors     []Author    `json:"authors" validate:"dive"`
	Abstract    string      `json:"abstract,omitempty"`
	Body        string      `json:"body,omitempty"`
	References  []entry.Ref `json:"references" validate:"dive"`
	Publication Publication `json:"publication"`
}

// Author is a person who wrote an article.
type Author struct {
	Name        entries.PersonName `json:"name"`
	Affiliation string             `json:"affiliation,omitempty"`
	Contact     string             `json:"contact,omitempty" validate:"omitempty,email"`
}

// Publication tracks the editorial state of an article.
type Publication struct {
	Status    string                  `json:"status,omitempty" validate:"omitempty,oneof=draft review published"`
	Published entries.DateDescription `json:"published"`
}

// Validate implements repository.Validatable.
func (a Article) Validate() error {
	if err := entries.Validate(a); err != nil {
		return err
	}

	if a.Publication.Status == StatusPublished && len(a.Authors) == 0 {
		return entries.Invalid("a published article needs an author")
	}

	return nil
}
