// Package relationship is the relationship entry kind: a typed, directed link
// between two entries of any kind, e.g. a person who "wrote" a work.
//
// Relationship types are free-form identifiers; the collection does not keep a
// registry of them.
package relationship

import (
	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/entry"
)

const (
	EntryType  = "relationship"
	TableName  = "relationships"
	SearchCore = "relationships"
)

// Relationship is the document of a relationship between two entries.
type Relationship struct {
	Type        string                  `json:"type" validate:"required"`
	Source      entry.Ref               `json:"source"`
	Target      entry.Ref               `json:"target"`
	Date        entries.DateDescription `json:"date"`
	Description string                  `json:"description,omitempty"`
}

// Validate implements repository.Validatable.
func (r Relationship) Validate() error {
	if err := entries.Validate(r); err != nil {
		return err
	}

	if r.Source.EntryID() == r.Target.EntryID() {
		return entries.Invalid("an entry cannot be related to itself")
	}

	return nil
}

// Involves reports whether id is the source or the target.
func (r Relationship) Involves(id entry.ID) bool {
	return r.Source.EntryID() == id || r.Target.EntryID() == id
}
