// Package repository provides the schema-agnostic document repository of the
// thematic research collection.
//
// Entries of every kind (works, persons, articles, ...) are stored as versioned
// JSON documents. The package defines the storage-independent pieces:
//
//   - Store: the persistence contract implemented by postgresstore and memstore
//   - Repository: the CRUD façade (Get, Create, Edit, Delete, ListAll) with
//     before/after update observers
//   - ChangeSet: named field mutations applied atomically as a JSON Patch
//   - EditCommand, EditCommandFactory, UpdateStrategy: the edit protocol
//
// Edits are optimistic. A command's Execute hands the update strategy a Mutator
// that turns the original value into the modified one; the strategy reads the
// freshest stored version, applies the mutator and writes conditionally on the
// version it read. Lost races are retried with exponential backoff.
//
// Common usage pattern:
//
//	repo, _ := repository.New(store, work.NewEditor, repository.WithLogger(logger))
//
//	editor, _ := repo.Create()
//	_ = editor.SetTitle("Don Quixote")
//	created, err := editor.Execute(ctx)
//
//	editor, _ = repo.Edit(ctx, created.ID)
//	_ = editor.SetSummary("A novel by Miguel de Cervantes")
//	updated, err := editor.Execute(ctx) // updated.Version == 2
package repository
