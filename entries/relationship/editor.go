package relationship

import (
	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
)

// Editor edits one relationship through a change set.
type Editor struct {
	*repository.ChangeSetCommand[Relationship]
}

// NewEditor is the repository.EditCommandFactory of relationships.
func NewEditor(id string, current *Relationship, strategy repository.UpdateStrategy[Relationship]) *Editor {
	return &Editor{ChangeSetCommand: repository.NewChangeSetCommand(id, current, strategy)}
}

// SetType sets the relationship type.
func (e *Editor) SetType(relationshipType string) error {
	return e.ChangeSet().Set("type", relationshipType)
}

// Relate sets source and target in one go.
func (e *Editor) Relate(source, target entry.Ref) error {
	if err := e.SetSource(source); err != nil {
		return err
	}

	return e.SetTarget(target)
}

// SetSource sets the entry the relationship starts at.
func (e *Editor) SetSource(source entry.Ref) error {
	return e.ChangeSet().Set("source", source)
}

// SetTarget sets the entry the relationship points to.
func (e *Editor) SetTarget(target entry.Ref) error {
	return e.ChangeSet().Set("target", target)
}

// SetSourceLabel updates the cached display label of the source.
func (e *Editor) SetSourceLabel(label string) error {
	return e.ChangeSet().Partial("source").Set("label", label)
}

// SetTargetLabel updates the cached display label of the target.
func (e *Editor) SetTargetLabel(label string) error {
	return e.ChangeSet().Partial("target").Set("label", label)
}

// SetDate sets when the relationship held.
func (e *Editor) SetDate(date entries.DateDescription) error {
	return e.ChangeSet().Set("date", date)
}

// SetDescription sets the description.
func (e *Editor) SetDescription(description string) error {
	return e.ChangeSet().Set("description", description)
}
