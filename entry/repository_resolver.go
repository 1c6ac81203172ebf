package entry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/trc-platform/trc/repository"
)

var (
	// ErrEmptyEntryType is returned when a resolver is created without an entry type.
	ErrEmptyEntryType = errors.New("entry type must not be empty")

	// ErrNilGetter is returned when a resolver is created without a document source.
	ErrNilGetter = errors.New("document getter must not be nil")

	// ErrUnsupportedInstance is returned by IDOf for instances the resolver does not identify.
	ErrUnsupportedInstance = errors.New("instance not supported by resolver")
)

// Getter loads documents of one kind, e.g. a *repository.Repository.
type Getter[T any] interface {
	Get(ctx context.Context, id string) (repository.Document[T], error)
}

// RepositoryResolver resolves the entries of one entry type from a repository.
// Its URIs have the form "<baseURI>/<escaped id>".
type RepositoryResolver[T any] struct {
	entryType string
	baseURI   string
	getter    Getter[T]
}

// NewRepositoryResolver creates a resolver for entryType backed by getter.
func NewRepositoryResolver[T any](entryType, baseURI string, getter Getter[T]) (*RepositoryResolver[T], error) {
	if entryType == "" {
		return nil, ErrEmptyEntryType
	}

	if getter == nil {
		return nil, ErrNilGetter
	}

	return &RepositoryResolver[T]{
		entryType: entryType,
		baseURI:   strings.TrimRight(baseURI, "/"),
		getter:    getter,
	}, nil
}

// EntryType returns the type the resolver accepts.
func (r *RepositoryResolver[T]) EntryType() string {
	return r.entryType
}

// Accepts implements Resolver.
func (r *RepositoryResolver[T]) Accepts(entryType string) bool {
	return entryType == r.entryType
}

// Resolve implements Resolver. The instance is a repository.Document[T].
func (r *RepositoryResolver[T]) Resolve(ctx context.Context, id ID) (any, error) {
	if !r.Accepts(id.Type) {
		return nil, fmt.Errorf("%w for entry type %q", ErrNoResolver, id.Type)
	}

	doc, err := r.getter.Get(ctx, id.ID)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Identifies implements Resolver.
func (r *RepositoryResolver[T]) Identifies(instance any) bool {
	switch doc := instance.(type) {
	case repository.Document[T]:
		return true
	case *repository.Document[T]:
		return doc != nil
	default:
		return false
	}
}

// IDOf implements Resolver.
func (r *RepositoryResolver[T]) IDOf(instance any) (ID, error) {
	switch doc := instance.(type) {
	case repository.Document[T]:
		return ID{ID: doc.ID, Type: r.entryType}, nil
	case *repository.Document[T]:
		if doc != nil {
			return ID{ID: doc.ID, Type: r.entryType}, nil
		}
	}

	return ID{}, fmt.Errorf("%w: %T", ErrUnsupportedInstance, instance)
}

// URIOf implements Resolver.
func (r *RepositoryResolver[T]) URIOf(id ID) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}

	if !r.Accepts(id.Type) {
		return "", fmt.Errorf("%w for entry type %q", ErrNoResolver, id.Type)
	}

	return r.baseURI + "/" + url.PathEscape(id.ID), nil
}

// ParseURI implements Resolver.
func (r *RepositoryResolver[T]) ParseURI(uri string) (ID, bool) {
	escaped, found := strings.CutPrefix(uri, r.baseURI+"/")
	if !found || escaped == "" || strings.Contains(escaped, "/") {
		return ID{}, false
	}

	id, err := url.PathUnescape(escaped)
	if err != nil || id == "" {
		return ID{}, false
	}

	return ID{ID: id, Type: r.entryType}, true
}
