package entry

import "context"

// Resolver maps IDs of the entry types it accepts to instances and URIs, and back.
type Resolver interface {
	// Accepts reports whether the resolver handles entryType.
	Accepts(entryType string) bool

	// Resolve loads the entry identified by id.
	Resolve(ctx context.Context, id ID) (any, error)

	// Identifies reports whether instance is an entry this resolver can identify.
	Identifies(instance any) bool

	// IDOf returns the ID of an instance the resolver Identifies.
	IDOf(instance any) (ID, error)

	// URIOf returns the canonical URI of id.
	URIOf(id ID) (string, error)

	// ParseURI maps a URI back to an ID. ok is false when the URI is not one of this resolver's.
	ParseURI(uri string) (id ID, ok bool)
}
