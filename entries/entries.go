package entries

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEntry is returned when an entry document fails validation.
var ErrInvalidEntry = errors.New("invalid entry")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the validate struct tags of value.
func Validate(value any) error {
	if err := validate.Struct(value); err != nil {
		return errors.Join(ErrInvalidEntry, err)
	}

	return nil
}

// Invalid returns an ErrInvalidEntry carrying msg.
func Invalid(msg string) error {
	return errors.Join(ErrInvalidEntry, errors.New(msg))
}

// DateDescription is a date as scholars record it: a normalized, sortable value
// (e.g. "1605" or "1605-01-16") and the free-text description shown to readers
// (e.g. "early 1605, before the Madrid printing").
type DateDescription struct {
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// IsEmpty reports whether neither value nor description is set.
func (d DateDescription) IsEmpty() bool {
	return d.Value == "" && d.Description == ""
}

// Display returns the description, falling back to the value.
func (d DateDescription) Display() string {
	if d.Description != "" {
		return d.Description
	}

	return d.Value
}

// PersonName is the structured name of a person.
type PersonName struct {
	Title       string `json:"title,omitempty"`
	GivenName   string `json:"givenName,omitempty"`
	MiddleName  string `json:"middleName,omitempty"`
	FamilyName  string `json:"familyName,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// IsEmpty reports whether no name part is set.
func (n PersonName) IsEmpty() bool {
	return n == PersonName{}
}

// Display returns DisplayName or, if that is empty, the name parts joined in reading order.
func (n PersonName) Display() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}

	parts := make([]string, 0, 5)
	for _, part := range []string{n.Title, n.GivenName, n.MiddleName, n.FamilyName, n.Suffix} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, " ")
}

// Sortable returns the name in "Family, Given Middle" order.
func (n PersonName) Sortable() string {
	given := strings.TrimSpace(strings.Join([]string{n.GivenName, n.MiddleName}, " "))

	switch {
	case n.FamilyName == "":
		return n.Display()
	case given == "":
		return n.FamilyName
	default:
		return n.FamilyName + ", " + given
	}
}
