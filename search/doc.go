// Package search mirrors repository documents into search cores.
//
// A Mediator listens to the after-update events of one repository, adapts every
// committed document into a flat search Document and pushes it to all configured
// Indexers concurrently. Deleted documents are removed from the indexers. Indexing
// failures are logged and counted but never reach the writer. Reindex rebuilds a
// core from the stored documents.
package search
