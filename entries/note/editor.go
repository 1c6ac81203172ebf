package note

import (
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
)

// Editor edits one note through a change set.
type Editor struct {
	*repository.ChangeSetCommand[Note]
}

// NewEditor is the repository.EditCommandFactory of notes.
func NewEditor(id string, current *Note, strategy repository.UpdateStrategy[Note]) *Editor {
	return &Editor{ChangeSetCommand: repository.NewChangeSetCommand(id, current, strategy)}
}

// SetTitle sets the title.
func (e *Editor) SetTitle(title string) error {
	return e.ChangeSet().Set("title", title)
}

// SetType sets the note type, e.g. "textual" or "historical".
func (e *Editor) SetType(noteType string) error {
	return e.ChangeSet().Set("type", noteType)
}

// SetContent sets the note text.
func (e *Editor) SetContent(content string) error {
	return e.ChangeSet().Set("content", content)
}

// SetAuthor sets who wrote the note.
func (e *Editor) SetAuthor(author string) error {
	return e.ChangeSet().Set("author", author)
}

// Attach attaches the note to another entry.
func (e *Editor) Attach(ref entry.Ref) error {
	return e.ChangeSet().Append("entries", ref)
}

// Detach removes the attached entry at index.
func (e *Editor) Detach(index int) error {
	return e.ChangeSet().RemoveAt("entries", index)
}

// AddKeyword appends a keyword.
func (e *Editor) AddKeyword(keyword string) error {
	return e.ChangeSet().Append("keywords", keyword)
}
