// Package cli implements the trcctl commands.
//
// Every configuration key of package config is available as a persistent flag
// and as a TRC_* environment variable, e.g. --postgres-dsn / TRC_POSTGRES_DSN.
// Flags take precedence over the environment, which takes precedence over .env
// and .env.local files in the working directory.
package cli
