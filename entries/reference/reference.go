// Package reference is the bibliographic reference entry kind: a citation of a
// specific place in a work, optionally with the cited text, linked to the entries
// it supports.
package reference

import (
	"strings"

	"github.com/trc-platform/trc/entries"
	"github.com/trc-platform/trc/entry"
)

const (
	EntryType  = "reference"
	TableName  = "bibliographic_references"
	SearchCore = "references"
)

// Reference is the document of a bibliographic reference.
type Reference struct {
	Work       entry.Ref   `json:"work"`
	Type       string      `json:"type,omitempty"`
	Citation   Citation    `json:"citation"`
	Text       string      `json:"text,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	Associated []entry.Ref `json:"associatedEntries" validate:"dive"`
}

// Citation locates the cited passage inside the work.
type Citation struct {
	Volume  string `json:"volume,omitempty"`
	Pages   string `json:"pages,omitempty"`
	Locator string `json:"locator,omitempty"`
}

// String renders the citation as e.g. "vol. 2, pp. 113-115, ch. 4".
func (c Citation) String() string {
	parts := make([]string, 0, 3)

	if c.Volume != "" {
		parts = append(parts, "vol. "+c.Volume)
	}

	if c.Pages != "" {
		prefix := "p. "
		if strings.ContainsAny(c.Pages, "-,") {
			prefix = "pp. "
		}
		parts = append(parts, prefix+c.Pages)
	}

	if c.Locator != "" {
		parts = append(parts, c.Locator)
	}

	return strings.Join(parts, ", ")
}

// Validate implements repository.Validatable.
func (r Reference) Validate() error {
	if err := entries.Validate(r); err != nil {
		return err
	}

	if r.Work.Type != "work" {
		return entries.Invalid("a bibliographic reference must cite a work")
	}

	return nil
}
