package postgresstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/repository/postgresstore/internal/adapters"
	"github.com/trc-platform/trc/testutil"
)

// fakeDB is a scripted adapters.DBAdapter that records the SQL it receives.
type fakeDB struct {
	queries      []string
	rowsAffected []int64
	results      [][][]any
	execErr      error
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	f.queries = append(f.queries, query)

	var result [][]any
	if len(f.results) > 0 {
		result, f.results = f.results[0], f.results[1:]
	}

	return &fakeRows{rows: result, pos: -1}, nil
}

func (f *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	f.queries = append(f.queries, query)

	if f.execErr != nil {
		return nil, f.execErr
	}

	var affected int64
	if len(f.rowsAffected) > 0 {
		affected, f.rowsAffected = f.rowsAffected[0], f.rowsAffected[1:]
	}

	return fakeResult(affected), nil
}

func (f *fakeDB) Ping(_ context.Context) error {
	return nil
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	*(dest[0].(*string)) = row[0].(string)
	*(dest[1].(*int64)) = row[1].(int64)
	*(dest[2].(*[]byte)) = row[2].([]byte)
	*(dest[3].(*time.Time)) = row[3].(time.Time)
	*(dest[4].(*time.Time)) = row[4].(time.Time)

	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

type fakeResult int64

func (f fakeResult) RowsAffected() (int64, error) {
	return int64(f), nil
}

func storedRow(id string, version int64) []any {
	ts := time.Unix(0, 0).UTC()
	return []any{id, version, []byte(`{"title":"x"}`), ts, ts}
}

func newTestStore(t *testing.T, db *fakeDB) *Store {
	store, err := newStore(db, WithTableName("works"))
	require.NoError(t, err)

	return store
}

func Test_BuildSelectQuery(t *testing.T) {
	store := newTestStore(t, &fakeDB{})

	sqlQuery, err := store.buildSelectQuery("w1")

	assert.NoError(t, err)
	assert.Equal(t, `SELECT "id", "version", "document", "created_at", "modified_at" FROM "works" WHERE ("id" = 'w1')`, sqlQuery)
}

func Test_BuildListQuery_WithPaging(t *testing.T) {
	store := newTestStore(t, &fakeDB{})

	sqlQuery, err := store.buildListQuery(repository.Page{Limit: 10, Offset: 20})

	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `ORDER BY "created_at" ASC, "id" ASC`)
	assert.Contains(t, sqlQuery, `LIMIT 10`)
	assert.Contains(t, sqlQuery, `OFFSET 20`)
}

func Test_BuildListQuery_WithoutPaging(t *testing.T) {
	store := newTestStore(t, &fakeDB{})

	sqlQuery, err := store.buildListQuery(repository.Page{})

	assert.NoError(t, err)
	assert.NotContains(t, sqlQuery, "LIMIT")
	assert.NotContains(t, sqlQuery, "OFFSET")
}

func Test_BuildInsertQuery_EscapesDocument(t *testing.T) {
	store := newTestStore(t, &fakeDB{})

	sqlQuery, err := store.buildInsertQuery(repository.Record{
		ID:       "w1",
		Version:  1,
		Document: []byte(`{"title":"it's"}`),
	})

	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `INSERT INTO "works"`)
	assert.Contains(t, sqlQuery, `'{"title":"it''s"}'::jsonb`)
	assert.Contains(t, sqlQuery, `ON CONFLICT DO NOTHING`)
}

func Test_BuildUpdateQuery_ChecksExpectedVersion(t *testing.T) {
	store := newTestStore(t, &fakeDB{})

	sqlQuery, err := store.buildUpdateQuery(repository.Record{ID: "w1", Version: 4, Document: []byte(`{}`)}, 3)

	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `UPDATE "works" SET`)
	assert.Contains(t, sqlQuery, `"version"=4`)
	assert.Contains(t, sqlQuery, `("id" = 'w1')`)
	assert.Contains(t, sqlQuery, `("version" = 3)`)
}

func Test_BuildDeleteQuery(t *testing.T) {
	store := newTestStore(t, &fakeDB{})

	sqlQuery, err := store.buildDeleteQuery("w1", 3)

	assert.NoError(t, err)
	assert.Equal(t, `DELETE FROM "works" WHERE (("id" = 'w1') AND ("version" = 3))`, sqlQuery)
}

func Test_Get_When_NoRowMatches(t *testing.T) {
	store := newTestStore(t, &fakeDB{})

	_, err := store.Get(context.Background(), "w1")

	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func Test_Get_ScansRecord(t *testing.T) {
	store := newTestStore(t, &fakeDB{results: [][][]any{{storedRow("w1", 7)}}})

	rec, err := store.Get(context.Background(), "w1")

	assert.NoError(t, err)
	assert.Equal(t, "w1", rec.ID)
	assert.Equal(t, uint(7), rec.Version)
	assert.JSONEq(t, `{"title":"x"}`, string(rec.Document))
}

func Test_Insert_When_IDExists(t *testing.T) {
	store := newTestStore(t, &fakeDB{rowsAffected: []int64{0}})

	err := store.Insert(context.Background(), repository.Record{ID: "w1", Document: []byte(`{}`)})

	assert.ErrorIs(t, err, repository.ErrDuplicateID)
}

func Test_Update_When_VersionMovedOn(t *testing.T) {
	db := &fakeDB{rowsAffected: []int64{0}, results: [][][]any{{storedRow("w1", 5)}}}
	store := newTestStore(t, db)

	err := store.Update(context.Background(), repository.Record{ID: "w1", Version: 4, Document: []byte(`{}`)}, 3)

	assert.ErrorIs(t, err, repository.ErrConcurrencyConflict)
	assert.Len(t, db.queries, 2, "the missed update is followed by an existence check")
}

func Test_Update_When_DocumentIsGone(t *testing.T) {
	store := newTestStore(t, &fakeDB{rowsAffected: []int64{0}})

	err := store.Update(context.Background(), repository.Record{ID: "w1", Version: 4, Document: []byte(`{}`)}, 3)

	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func Test_Delete_When_NoRowMatches(t *testing.T) {
	store := newTestStore(t, &fakeDB{rowsAffected: []int64{0}})

	err := store.Delete(context.Background(), "w1", 1)

	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func Test_Delete_When_VersionMovedOn(t *testing.T) {
	db := &fakeDB{rowsAffected: []int64{0}, results: [][][]any{{storedRow("w1", 5)}}}
	store := newTestStore(t, db)

	err := store.Delete(context.Background(), "w1", 4)

	assert.ErrorIs(t, err, repository.ErrConcurrencyConflict)
	assert.Len(t, db.queries, 2, "the missed delete is followed by an existence check")
}

func Test_Tracing_WrapsStoreOperations(t *testing.T) {
	// setup
	tracing := testutil.NewTracingCollectorSpy()
	db := &fakeDB{rowsAffected: []int64{1, 0}, results: [][][]any{{storedRow("w1", 2)}}}
	store, err := newStore(db, WithTableName("works"), WithTracing(tracing))
	require.NoError(t, err)
	ctx := context.Background()

	// act
	require.NoError(t, store.Insert(ctx, repository.Record{ID: "w1", Version: 1, Document: []byte(`{}`)}))
	conflictErr := store.Update(ctx, repository.Record{ID: "w1", Version: 2, Document: []byte(`{}`)}, 1)

	// assert
	assert.ErrorIs(t, conflictErr, repository.ErrConcurrencyConflict)
	assert.Equal(t, []string{"documentstore.insert", "documentstore.update"}, tracing.SpanNames())

	insert, ok := tracing.FinishedSpan("documentstore.insert")
	require.True(t, ok)
	assert.Equal(t, statusSuccess, insert.Status)
	assert.Equal(t, "works", insert.StartAttributes[spanAttrTable])
	assert.Equal(t, "w1", insert.StartAttributes[spanAttrDocumentID])

	update, ok := tracing.FinishedSpan("documentstore.update")
	require.True(t, ok)
	assert.Equal(t, repository.StatusConflict, update.Status)
}

func Test_Exec_WrapsDatabaseErrors(t *testing.T) {
	cause := errors.New("connection reset")
	store := newTestStore(t, &fakeDB{execErr: cause})

	err := store.Delete(context.Background(), "w1", 1)

	assert.ErrorIs(t, err, ErrWritingFailed)
	assert.ErrorIs(t, err, cause)
}

func Test_CreateSchema_QuotesTableName(t *testing.T) {
	db := &fakeDB{}
	store := newTestStore(t, db)

	err := store.CreateSchema(context.Background())

	assert.NoError(t, err)
	require.Len(t, db.queries, 2)
	assert.Contains(t, db.queries[0], `CREATE TABLE IF NOT EXISTS "works"`)
	assert.Contains(t, db.queries[1], `CREATE INDEX IF NOT EXISTS "works_created_at_idx" ON "works"`)
}

func Test_WithTableName_When_Empty(t *testing.T) {
	_, err := newStore(&fakeDB{}, WithTableName(""))

	assert.ErrorIs(t, err, ErrEmptyTableName)
}
