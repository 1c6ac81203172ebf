package config

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	driverName = "postgres"

	minConnections    = int32(2)
	maxConnLifetime   = time.Hour
	maxConnIdleTime   = time.Minute * 5
	healthCheckPeriod = time.Minute
	connectTimeout    = time.Second * 5
)

var (
	// ErrOpeningDatabaseFailed is returned when a connection pool cannot be created.
	ErrOpeningDatabaseFailed = errors.New("opening database failed")

	// ErrPingingDatabaseFailed is returned when a freshly opened pool cannot reach the database.
	ErrPingingDatabaseFailed = errors.New("pinging database failed")
)

// PGXPoolConfig creates a pgxpool.Config for the configured database.
func (c Config) PGXPoolConfig() (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(c.PostgresDSN)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	dbConfig.MaxConns = int32(c.PostgresMaxConns) //nolint:gosec
	dbConfig.MinConns = min(minConnections, dbConfig.MaxConns)
	dbConfig.MaxConnLifetime = maxConnLifetime
	dbConfig.MaxConnIdleTime = maxConnIdleTime
	dbConfig.HealthCheckPeriod = healthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = connectTimeout

	return dbConfig, nil
}

// OpenPGXPool opens and pings a pgx pool.
func (c Config) OpenPGXPool(ctx context.Context) (*pgxpool.Pool, error) {
	dbConfig, err := c.PGXPoolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrPingingDatabaseFailed, err)
	}

	return pool, nil
}

// OpenSQLDB opens and pings a database/sql pool using the lib/pq driver.
func (c Config) OpenSQLDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(driverName, c.PostgresDSN)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	c.configureSQLPool(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrPingingDatabaseFailed, err)
	}

	return db, nil
}

// OpenSQLX opens and pings a sqlx pool using the lib/pq driver.
func (c Config) OpenSQLX(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, c.PostgresDSN)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	c.configureSQLPool(db.DB)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrPingingDatabaseFailed, err)
	}

	return db, nil
}

func (c Config) configureSQLPool(db *sql.DB) {
	db.SetMaxOpenConns(c.PostgresMaxConns)
	db.SetMaxIdleConns(int(minConnections))
	db.SetConnMaxLifetime(maxConnLifetime)
	db.SetConnMaxIdleTime(maxConnIdleTime)
}
