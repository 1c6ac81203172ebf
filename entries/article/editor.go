package article

import (
	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
)

// Editor edits one article through a change set.
type Editor struct {
	*repository.ChangeSetCommand[Article]
}

// NewEditor is the repository.EditCommandFactory of articles.
func NewEditor(id string, current *Article, strategy repository.UpdateStrategy[Article]) *Editor {
	return &Editor{ChangeSetCommand: repository.NewChangeSetCommand(id, current, strategy)}
}

// SetTitle sets the title.
func (e *Editor) SetTitle(title string) error {
	return e.ChangeSet().Set("title", title)
}

// SetType sets the article type, e.g. "essay" or "biography".
func (e *Editor) SetType(articleType string) error {
	return e.ChangeSet().Set("type", articleType)
}

// AddAuthor appends an author.
func (e *Editor) AddAuthor(author Author) error {
	return e.ChangeSet().Append("authors", author)
}

// SetAbstract sets the abstract.
func (e *Editor) SetAbstract(abstract string) error {
	return e.ChangeSet().Set("abstract", abstract)
}

// SetBody sets the article text.
func (e *Editor) SetBody(body string) error {
	return e.ChangeSet().Set("body", body)
}

// AddReference links the article to another entry.
func (e *Editor) AddReference(ref entry.Ref) error {
	return e.ChangeSet().Append("references", ref)
}

// RemoveReference removes the reference at index.
func (e *Editor) RemoveReference(index int) error {
	return e.ChangeSet().RemoveAt("references", index)
}

// Publish marks the article published on date.
func (e *Editor) Publish(date entries.DateDescription) error {
	publication := e.ChangeSet().Partial("publication")
	if err := publication.Set("status", StatusPublished); err != nil {
		return err
	}

	return publication.Set("published", date)
}

// SetStatus sets the editorial status.
func (e *Editor) SetStatus(status string) error {
	return e.ChangeSet().Partial("publication").Set("status", status)
}
