package reference

import (
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
)

// Editor edits one bibliographic reference through a change set.
type Editor struct {
	*repository.ChangeSetCommand[Reference]
}

// NewEditor is the repository.EditCommandFactory of bibliographic references.
func NewEditor(id string, current *Reference, strategy repository.UpdateStrategy[Reference]) *Editor {
	return &Editor{ChangeSetCommand: repository.NewChangeSetCommand(id, current, strategy)}
}

// SetWork sets the cited work.
func (e *Editor) SetWork(work entry.Ref) error {
	return e.ChangeSet().Set("work", work)
}

// SetType sets the reference type, e.g. "quotation" or "paraphrase".
func (e *Editor) SetType(referenceType string) error {
	return e.ChangeSet().Set("type", referenceType)
}

// SetCitation replaces the citation.
func (e *Editor) SetCitation(citation Citation) error {
	return e.ChangeSet().Set("citation", citation)
}

// SetPages sets the cited pages only.
func (e *Editor) SetPages(pages string) error {
	return e.ChangeSet().Partial("citation").Set("pages", pages)
}

// SetText sets the cited text.
func (e *Editor) SetText(text string) error {
	return e.ChangeSet().Set("text", text)
}

// SetSummary sets the summary.
func (e *Editor) SetSummary(summary string) error {
	return e.ChangeSet().Set("summary", summary)
}

// Associate links the reference to an entry it supports.
func (e *Editor) Associate(ref entry.Ref) error {
	return e.ChangeSet().Append("associatedEntries", ref)
}

// Dissociate removes the associated entry at index.
func (e *Editor) Dissociate(index int) error {
	return e.ChangeSet().RemoveAt("associatedEntries", index)
}
