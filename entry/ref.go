package entry

// Ref is a reference from one entry to another, as stored inside entry documents.
type Ref struct {
	ID    string `json:"id" validate:"required"`
	Type  string `json:"type" validate:"required"`
	Label string `json:"label,omitempty"`
}

// RefTo returns a Ref to id.
func RefTo(id ID) Ref {
	return Ref{ID: id.ID, Type: id.Type}
}

// EntryID returns the ID the Ref points to.
func (r Ref) EntryID() ID {
	return ID{ID: r.ID, Type: r.Type}
}

// Token returns the token of the referenced entry.
func (r Ref) Token() string {
	return r.EntryID().Token()
}
