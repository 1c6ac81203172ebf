package postgresstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/repository/postgresstore/internal/adapters"
)

const (
	defaultTableName = "documents"

	colID         = "id"
	colVersion    = "version"
	colDocument   = "document"
	colCreatedAt  = "created_at"
	colModifiedAt = "modified_at"

	dialectPostgres = "postgres"
	castJsonb       = "?::jsonb"

	operationGet          = "get"
	operationInsert       = "insert"
	operationUpdate       = "update"
	operationDelete       = "delete"
	operationList         = "list"
	operationCreateSchema = "create_schema"
)

type sqlQueryString = string

// Store is a repository.Store keeping JSON documents in one PostgreSQL table.
type Store struct {
	db               adapters.DBAdapter
	tableName        string
	logger           repository.Logger
	contextualLogger repository.ContextualLogger
	metricsCollector repository.MetricsCollector
	tracingCollector repository.TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:        db,
		tableName: defaultTableName,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// TableName returns the name of the table the Store writes to.
func (s *Store) TableName() string {
	return s.tableName
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateSchema creates the document table and its listing index if they do not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	start := time.Now()
	table := pgx.Identifier{s.tableName}.Sanitize()
	index := pgx.Identifier{s.tableName + "_created_at_idx"}.Sanitize()

	statements := []sqlQueryString{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s text PRIMARY KEY,
	%s bigint NOT NULL,
	%s jsonb NOT NULL,
	%s timestamptz NOT NULL,
	%s timestamptz NOT NULL
)`, table, colID, colVersion, colDocument, colCreatedAt, colModifiedAt),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s, %s)`, index, table, colCreatedAt, colID),
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(ctx, statement); err != nil {
			s.logError(ctx, logMsgCreateSchemaFailed, err, logAttrQuery, statement)
			s.recordErrorMetrics(ctx, operationCreateSchema, errorTypeDatabaseExec)
			return errors.Join(ErrCreatingSchemaFailed, err)
		}

		s.logQueryWithDuration(ctx, statement, operationCreateSchema, time.Since(start))
	}

	s.logOperation(ctx, logMsgSchemaCreated, logAttrTable, s.tableName)

	return nil
}

// Get implements repository.Store.
func (s *Store) Get(ctx context.Context, id string) (repository.Record, error) {
	ctx, span := s.startSpan(ctx, operationGet, id)

	rec, err := s.get(ctx, id)
	s.finishSpan(span, err)

	return rec, err
}

func (s *Store) get(ctx context.Context, id string) (repository.Record, error) {
	start := time.Now()

	sqlQuery, err := s.buildSelectQuery(id)
	if err != nil {
		return repository.Record{}, err
	}

	records, err := s.queryRecords(ctx, sqlQuery, operationGet)
	s.recordDurationMetrics(ctx, operationGet, time.Since(start), err)
	if err != nil {
		return repository.Record{}, err
	}

	if len(records) == 0 {
		return repository.Record{}, repository.ErrDocumentNotFound
	}

	return records[0], nil
}

// Insert implements repository.Store.
func (s *Store) Insert(ctx context.Context, rec repository.Record) error {
	ctx, span := s.startSpan(ctx, operationInsert, rec.ID)

	err := s.insert(ctx, rec)
	s.finishSpan(span, err)

	return err
}

func (s *Store) insert(ctx context.Context, rec repository.Record) error {
	start := time.Now()

	sqlQuery, err := s.buildInsertQuery(rec)
	if err != nil {
		return err
	}

	rowsAffected, err := s.execute(ctx, sqlQuery, operationInsert)
	s.recordDurationMetrics(ctx, operationInsert, time.Since(start), err)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		s.logOperation(ctx, logMsgDuplicateID, logAttrDocumentID, rec.ID)
		return repository.ErrDuplicateID
	}

	s.logOperation(ctx, logMsgDocumentInserted,
		logAttrDocumentID, rec.ID,
		logAttrDurationMS, s.toMilliseconds(time.Since(start)))

	return nil
}

// Update implements repository.Store.
func (s *Store) Update(ctx context.Context, rec repository.Record, expectedVersion uint) error {
	ctx, span := s.startSpan(ctx, operationUpdate, rec.ID)

	err := s.update(ctx, rec, expectedVersion)
	s.finishSpan(span, err)

	return err
}

func (s *Store) update(ctx context.Context, rec repository.Record, expectedVersion uint) error {
	start := time.Now()

	sqlQuery, err := s.buildUpdateQuery(rec, expectedVersion)
	if err != nil {
		return err
	}

	rowsAffected, err := s.execute(ctx, sqlQuery, operationUpdate)
	s.recordDurationMetrics(ctx, operationUpdate, time.Since(start), err)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return s.classifyMissedWrite(ctx, operationUpdate, rec.ID, expectedVersion)
	}

	s.logOperation(ctx, logMsgDocumentUpdated,
		logAttrDocumentID, rec.ID,
		logAttrVersion, rec.Version,
		logAttrDurationMS, s.toMilliseconds(time.Since(start)))

	return nil
}

// classifyMissedWrite tells a lost race apart from a document that does not exist (anymore).
func (s *Store) classifyMissedWrite(ctx context.Context, operation, id string, expectedVersion uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	s.logOperation(ctx, logMsgConcurrencyConflict, logAttrDocumentID, id, logAttrExpectedVersion, expectedVersion)
	s.recordConcurrencyConflictMetrics(ctx, operation)

	return repository.ErrConcurrencyConflict
}

// Delete implements repository.Store.
func (s *Store) Delete(ctx context.Context, id string, expectedVersion uint) error {
	ctx, span := s.startSpan(ctx, operationDelete, id)

	err := s.delete(ctx, id, expectedVersion)
	s.finishSpan(span, err)

	return err
}

func (s *Store) delete(ctx context.Context, id string, expectedVersion uint) error {
	start := time.Now()

	sqlQuery, err := s.buildDeleteQuery(id, expectedVersion)
	if err != nil {
		return err
	}

	rowsAffected, err := s.execute(ctx, sqlQuery, operationDelete)
	s.recordDurationMetrics(ctx, operationDelete, time.Since(start), err)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return s.classifyMissedWrite(ctx, operationDelete, id, expectedVersion)
	}

	s.logOperation(ctx, logMsgDocumentDeleted, logAttrDocumentID, id, logAttrVersion, expectedVersion)

	return nil
}

// List implements repository.Store.
func (s *Store) List(ctx context.Context, page repository.Page) ([]repository.Record, error) {
	ctx, span := s.startSpan(ctx, operationList, "")

	records, err := s.list(ctx, page)
	s.finishSpan(span, err)

	return records, err
}

func (s *Store) list(ctx context.Context, page repository.Page) ([]repository.Record, error) {
	start := time.Now()

	sqlQuery, err := s.buildListQuery(page)
	if err != nil {
		return nil, err
	}

	records, err := s.queryRecords(ctx, sqlQuery, operationList)
	s.recordDurationMetrics(ctx, operationList, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.logOperation(ctx, logMsgQueryCompleted,
		logAttrDocumentCount, len(records),
		logAttrDurationMS, s.toMilliseconds(time.Since(start)))

	return records, nil
}

// queryRecords executes sqlQuery and scans all resulting rows.
func (s *Store) queryRecords(ctx context.Context, sqlQuery string, operation string) ([]repository.Record, error) {
	start := time.Now()
	rows, err := s.db.Query(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, operation, time.Since(start))

	if err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		s.recordErrorMetrics(ctx, operation, errorTypeDatabaseQuery)
		return nil, errors.Join(ErrQueryingFailed, err)
	}
	defer s.closeRows(ctx, rows)

	records := make([]repository.Record, 0)

	for rows.Next() {
		var (
			rec     repository.Record
			version int64
		)

		if err := rows.Scan(&rec.ID, &version, &rec.Document, &rec.CreatedAt, &rec.ModifiedAt); err != nil {
			s.logError(ctx, logMsgScanRowFailed, err)
			s.recordErrorMetrics(ctx, operation, errorTypeRowScan)
			return nil, errors.Join(ErrScanningDBRowFailed, err)
		}

		rec.Version = uint(version)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		s.recordErrorMetrics(ctx, operation, errorTypeDatabaseQuery)
		return nil, errors.Join(ErrQueryingFailed, err)
	}

	return records, nil
}

// execute runs a write statement and returns the number of affected rows.
func (s *Store) execute(ctx context.Context, sqlQuery string, operation string) (int64, error) {
	start := time.Now()
	result, err := s.db.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, operation, time.Since(start))

	if err != nil {
		s.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		s.recordErrorMetrics(ctx, operation, errorTypeDatabaseExec)
		return 0, errors.Join(ErrWritingFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, err)
		s.recordErrorMetrics(ctx, operation, errorTypeRowsAffected)
		return 0, errors.Join(ErrGettingRowsAffectedFailed, err)
	}

	return rowsAffected, nil
}

// closeRows closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, err.Error())
	}
}

func (s *Store) selectColumns() []any {
	return []any{colID, colVersion, colDocument, colCreatedAt, colModifiedAt}
}

func (s *Store) buildSelectQuery(id string) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.tableName).
		Select(s.selectColumns()...).
		Where(goqu.Ex{colID: id})

	return s.toSQL(selectStmt)
}

func (s *Store) buildListQuery(page repository.Page) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.tableName).
		Select(s.selectColumns()...).
		Order(goqu.I(colCreatedAt).Asc(), goqu.I(colID).Asc())

	if page.Limit > 0 {
		selectStmt = selectStmt.Limit(uint(page.Limit))
	}

	if page.Offset > 0 {
		selectStmt = selectStmt.Offset(uint(page.Offset))
	}

	return s.toSQL(selectStmt)
}

func (s *Store) buildInsertQuery(rec repository.Record) (sqlQueryString, error) {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(s.tableName).
		Rows(goqu.Record{
			colID:         rec.ID,
			colVersion:    int64(rec.Version),
			colDocument:   goqu.L(castJsonb, string(rec.Document)),
			colCreatedAt:  rec.CreatedAt.UTC(),
			colModifiedAt: rec.ModifiedAt.UTC(),
		}).
		OnConflict(goqu.DoNothing())

	return s.toSQL(insertStmt)
}

func (s *Store) buildUpdateQuery(rec repository.Record, expectedVersion uint) (sqlQueryString, error) {
	updateStmt := goqu.Dialect(dialectPostgres).
		Update(s.tableName).
		Set(goqu.Record{
			colVersion:    int64(rec.Version),
			colDocument:   goqu.L(castJsonb, string(rec.Document)),
			colModifiedAt: rec.ModifiedAt.UTC(),
		}).
		Where(goqu.Ex{
			colID:      rec.ID,
			colVersion: int64(expectedVersion),
		})

	return s.toSQL(updateStmt)
}

func (s *Store) buildDeleteQuery(id string, expectedVersion uint) (sqlQueryString, error) {
	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(s.tableName).
		Where(goqu.Ex{
			colID:      id,
			colVersion: int64(expectedVersion),
		})

	return s.toSQL(deleteStmt)
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (s *Store) toSQL(stmt sqlBuilder) (sqlQueryString, error) {
	sqlQuery, _, err := stmt.ToSQL()
	if err != nil {
		s.logError(context.Background(), logMsgBuildQueryFailed, err)
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}
