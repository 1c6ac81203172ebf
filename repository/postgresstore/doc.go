// Package postgresstore provides a PostgreSQL implementation of repository.Store.
//
// Every entry kind lives in its own table holding one JSON document per row:
//
//	id          text PRIMARY KEY
//	version     bigint
//	document    jsonb
//	created_at  timestamptz
//	modified_at timestamptz
//
// Updates are conditional on the version that was read, which gives the repository
// its optimistic concurrency control.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Version-checked updates with concurrency conflict detection
//   - Configurable table names, logging and metrics
//
// Usage examples:
//
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresstore.NewStoreFromPGXPool(db, postgresstore.WithTableName("works"))
//	_ = store.CreateSchema(ctx)
//
//	repo, _ := repository.New(store, work.NewEditor)
package postgresstore
