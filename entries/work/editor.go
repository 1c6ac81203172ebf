package work

import (
	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
)

// Editor edits one work through a change set.
type Editor struct {
	*repository.ChangeSetCommand[Work]
}

// NewEditor is the repository.EditCommandFactory of works.
func NewEditor(id string, current *Work, strategy repository.UpdateStrategy[Work]) *Editor {
	return &Editor{ChangeSetCommand: repository.NewChangeSetCommand(id, current, strategy)}
}

// SetType sets the kind of work, e.g. "book" or "letter".
func (e *Editor) SetType(workType string) error {
	return e.ChangeSet().Set("type", workType)
}

// SetTitles replaces all titles.
func (e *Editor) SetTitles(titles ...Title) error {
	return e.ChangeSet().Set("titles", titles)
}

// AddTitle appends a title.
func (e *Editor) AddTitle(title Title) error {
	return e.ChangeSet().Append("titles", title)
}

// SetSubtitle sets the subtitle of the title at index.
func (e *Editor) SetSubtitle(index int, subtitle string) error {
	return e.ChangeSet().PartialAt("titles", index).Set("subtitle", subtitle)
}

// AddAuthor appends an author.
func (e *Editor) AddAuthor(author Contributor) error {
	return e.ChangeSet().Append("authors", author)
}

// RemoveAuthor removes the author at index.
func (e *Editor) RemoveAuthor(index int) error {
	return e.ChangeSet().RemoveAt("authors", index)
}

// LinkAuthor points the author at index to a person entry.
func (e *Editor) LinkAuthor(index int, person entry.Ref) error {
	return e.ChangeSet().PartialAt("authors", index).Set("person", person)
}

// AddContributor appends a contributor other than an author.
func (e *Editor) AddContributor(contributor Contributor) error {
	return e.ChangeSet().Append("contributors", contributor)
}

// SetDate sets the date of the work.
func (e *Editor) SetDate(date entries.DateDescription) error {
	return e.ChangeSet().Set("date", date)
}

// SetPublisher sets the publisher of the imprint.
func (e *Editor) SetPublisher(publisher string) error {
	return e.ChangeSet().Partial("publication").Set("publisher", publisher)
}

// SetPublicationPlace sets the place of publication.
func (e *Editor) SetPublicationPlace(place string) error {
	return e.ChangeSet().Partial("publication").Set("place", place)
}

// SetEdition sets the edition statement.
func (e *Editor) SetEdition(edition string) error {
	return e.ChangeSet().Partial("publication").Set("edition", edition)
}

// SetSeries sets the series the work appeared in.
func (e *Editor) SetSeries(series string) error {
	return e.ChangeSet().Set("series", series)
}

// SetSummary sets the summary.
func (e *Editor) SetSummary(summary string) error {
	return e.ChangeSet().Set("summary", summary)
}

// AddKeyword appends a keyword.
func (e *Editor) AddKeyword(keyword string) error {
	return e.ChangeSet().Append("keywords", keyword)
}
