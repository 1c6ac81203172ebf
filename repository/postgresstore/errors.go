package postgresstore

import "errors"

var (
	ErrNilDatabaseConnection     = errors.New("database connection must not be nil")
	ErrEmptyTableName            = errors.New("empty table name supplied")
	ErrBuildingQueryFailed       = errors.New("building query failed")
	ErrQueryingFailed            = errors.New("querying documents failed")
	ErrScanningDBRowFailed       = errors.New("scanning db row failed")
	ErrWritingFailed             = errors.New("writing document failed")
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
	ErrCreatingSchemaFailed      = errors.New("creating schema failed")
)
