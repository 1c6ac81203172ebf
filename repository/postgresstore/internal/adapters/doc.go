// Package adapters provides the database adapters of the PostgreSQL document store.
//
// pgxpool.Pool, sql.DB (with the lib/pq driver) and sqlx.DB are supported. All adapters
// present the same DBAdapter interface, so the store works with any of them.
package adapters
