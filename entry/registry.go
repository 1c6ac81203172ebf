package entry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/trc-platform/trc/repository"
)

var (
	// ErrNoResolver is returned when no registered resolver handles a type, instance or URI.
	ErrNoResolver = errors.New("no entry resolver registered")

	// ErrNilResolver is returned when registering a nil resolver.
	ErrNilResolver = errors.New("entry resolver must not be nil")
)

const (
	logMsgResolverRegistered   = "entry resolver registered"
	logMsgResolverUnregistered = "entry resolver unregistered"
	logMsgNoResolver           = "no entry resolver found"

	logAttrResolver  = "resolver"
	logAttrEntryType = "entry_type"
	logAttrURI       = "uri"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and lookup misses.
func WithLogger(logger repository.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

type registration struct {
	key      uint64
	resolver Resolver
}

// Registry is a chain of responsibility over Resolvers: every lookup asks the
// registered resolvers in registration order and uses the first that matches.
type Registry struct {
	mu         sync.RWMutex
	registered []registration
	nextKey    uint64
	byType     *xsync.MapOf[string, Resolver]
	logger     repository.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{byType: xsync.NewMapOf[string, Resolver]()}

	for _, option := range options {
		option(r)
	}

	return r
}

// Register appends resolver to the chain and returns a func that removes it again.
func (r *Registry) Register(resolver Resolver) (func(), error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}

	r.mu.Lock()
	r.nextKey++
	key := r.nextKey
	r.registered = append(r.registered, registration{key: key, resolver: resolver})
	r.byType.Clear()
	r.mu.Unlock()

	r.logDebug(logMsgResolverRegistered, logAttrResolver, fmt.Sprintf("%T", resolver))

	var once sync.Once

	return func() {
		once.Do(func() { r.unregister(key, resolver) })
	}, nil
}

func (r *Registry) unregister(key uint64, resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, reg := range r.registered {
		if reg.key == key {
			r.registered = append(r.registered[:i:i], r.registered[i+1:]...)
			break
		}
	}
	r.byType.Clear()

	r.logDebug(logMsgResolverUnregistered, logAttrResolver, fmt.Sprintf("%T", resolver))
}

// Len returns the number of registered resolvers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.registered)
}

func (r *Registry) snapshot() []Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolvers := make([]Resolver, len(r.registered))
	for i, reg := range r.registered {
		resolvers[i] = reg.resolver
	}

	return resolvers
}

func (r *Registry) resolverFor(entryType string) (Resolver, error) {
	if resolver, ok := r.byType.Load(entryType); ok {
		return resolver, nil
	}

	r.mu.RLock()
	for _, reg := range r.registered {
		if reg.resolver.Accepts(entryType) {
			// the cache is only written under the read lock, (un)registering clears it under the write lock
			r.byType.Store(entryType, reg.resolver)
			r.mu.RUnlock()

			return reg.resolver, nil
		}
	}
	r.mu.RUnlock()

	r.logDebug(logMsgNoResolver, logAttrEntryType, entryType)

	return nil, fmt.Errorf("%w for entry type %q", ErrNoResolver, entryType)
}

// Resolve loads the entry identified by id.
func (r *Registry) Resolve(ctx context.Context, id ID) (any, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	resolver, err := r.resolverFor(id.Type)
	if err != nil {
		return nil, err
	}

	return resolver.Resolve(ctx, id)
}

// ResolveToken loads the entry a token points to.
func (r *Registry) ResolveToken(ctx context.Context, token string) (any, error) {
	id, err := ParseToken(token)
	if err != nil {
		return nil, err
	}

	return r.Resolve(ctx, id)
}

// ResolveURI loads the entry a URI points to.
func (r *Registry) ResolveURI(ctx context.Context, uri string) (any, error) {
	id, err := r.IDFromURI(uri)
	if err != nil {
		return nil, err
	}

	return r.Resolve(ctx, id)
}

// Dereference loads the entry a Ref points to.
func (r *Registry) Dereference(ctx context.Context, ref Ref) (any, error) {
	return r.Resolve(ctx, ref.EntryID())
}

// IDOf returns the ID of instance as reported by the first resolver that identifies it.
func (r *Registry) IDOf(instance any) (ID, error) {
	for _, resolver := range r.snapshot() {
		if resolver.Identifies(instance) {
			return resolver.IDOf(instance)
		}
	}

	return ID{}, fmt.Errorf("%w for instance of type %T", ErrNoResolver, instance)
}

// TokenOf returns the token of instance.
func (r *Registry) TokenOf(instance any) (string, error) {
	id, err := r.IDOf(instance)
	if err != nil {
		return "", err
	}

	return id.Token(), nil
}

// URIOf returns the URI of id.
func (r *Registry) URIOf(id ID) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}

	resolver, err := r.resolverFor(id.Type)
	if err != nil {
		return "", err
	}

	return resolver.URIOf(id)
}

// IDFromURI maps uri back to an ID using the first resolver that recognises it.
func (r *Registry) IDFromURI(uri string) (ID, error) {
	for _, resolver := range r.snapshot() {
		if id, ok := resolver.ParseURI(uri); ok {
			return id, nil
		}
	}

	r.logDebug(logMsgNoResolver, logAttrURI, uri)

	return ID{}, fmt.Errorf("%w for uri %q", ErrNoResolver, uri)
}

func (r *Registry) logDebug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
