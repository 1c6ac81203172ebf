// Package entry addresses entries across all entry kinds of a collection.
//
// Every entry is identified by an ID, the pair of its document id and its entry
// type. An ID can be rendered as an opaque token (base64url of "id::type") or as a
// URI, and mapped back. A Registry holds the Resolvers of all entry kinds and asks
// them in registration order which one handles a given type, instance or URI.
//
//	registry := entry.NewRegistry(entry.WithLogger(logger))
//	unregister, err := registry.Register(workResolver)
//	...
//	instance, err := registry.ResolveToken(ctx, token)
package entry
