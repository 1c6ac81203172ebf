// Package config loads the runtime configuration of the collection and opens the
// PostgreSQL connection pools the document stores run on.
//
// Values come from (in increasing priority) built-in defaults, .env / .env.local
// files, TRC_* environment variables and command line flags bound to viper.
// Dashes in keys map to underscores in environment variable names, so the key
// "postgres-dsn" is read from TRC_POSTGRES_DSN.
package config
