// Package note is the note entry kind: short editorial annotations attached to
// one or more other entries.
package note

import (
	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/entry"
)

const (
	EntryType  = "note"
	TableName  = "notes"
	SearchCore = "notes"
)

// Note is the document of a note.
type Note struct {
	Title    string      `json:"title,omitempty"`
	Type     string      `json:"type,omitempty"`
	Content  string      `json:"content" validate:"required"`
	Author   string      `json:"author,omitempty"`
	Entries  []entry.Ref `json:"entries" validate:"dive"`
	Keywords []string    `json:"keywords"`
}

// Validate implements repository.Validatable.
func (n Note) Validate() error {
	return entries.Validate(n)
}

// Annotates reports whether the note is attached to id.
func (n Note) Annotates(id entry.ID) bool {
	for _, ref := range n.Entries {
		if ref.EntryID() == id {
			return true
		}
	}

	return false
}
