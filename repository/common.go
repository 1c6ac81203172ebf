package repository

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrDocumentNotFound is returned when no document is stored under the requested id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDuplicateID is returned when a document with the same id is already stored.
	ErrDuplicateID = errors.New("document id already exists")

	// ErrConcurrencyConflict is returned when the stored version moved on since it was read.
	ErrConcurrencyConflict = errors.New("concurrency conflict, the document was modified concurrently")

	// ErrEmptyDocumentID is returned when an operation is called with an empty id.
	ErrEmptyDocumentID = errors.New("document id must not be empty")

	// ErrNilStore is returned when a Repository is created without a Store.
	ErrNilStore = errors.New("store must not be nil")

	// ErrNilCommandFactory is returned when a Repository is created without an EditCommandFactory.
	ErrNilCommandFactory = errors.New("edit command factory must not be nil")

	ErrEncodingDocumentFailed = errors.New("encoding document failed")
	ErrDecodingDocumentFailed = errors.New("decoding document failed")
	ErrGeneratingIDFailed     = errors.New("generating document id failed")

	// ErrMutationFailed wraps errors returned by a Mutator.
	ErrMutationFailed = errors.New("mutating document failed")

	// ErrValidationFailed wraps errors returned by Validate on the modified document.
	ErrValidationFailed = errors.New("document validation failed")

	// ErrVetoed wraps the error of a BeforeUpdateObserver that rejected an update.
	ErrVetoed = errors.New("update vetoed by observer")
)

// Document is a stored, versioned value together with its id and timestamps.
type Document[T any] struct {
	ID         string
	Version    uint
	Value      T
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Record is the schema-agnostic form of a Document as handled by a Store.
// Document holds the JSON encoding of the value.
type Record struct {
	ID         string
	Version    uint
	Document   []byte
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Page restricts List results. A Limit <= 0 means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Store persists Records. Implementations must be safe for concurrent use.
//
// Insert fails with ErrDuplicateID if the id is taken.
// Update writes rec only if the stored version equals expectedVersion, otherwise it fails
// with ErrConcurrencyConflict; it fails with ErrDocumentNotFound if no record exists.
// Delete removes the record only if its stored version equals expectedVersion, with the
// same errors as Update.
// Get fails with ErrDocumentNotFound for unknown ids.
// List returns records ordered by CreatedAt, then ID.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Insert(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record, expectedVersion uint) error
	Delete(ctx context.Context, id string, expectedVersion uint) error
	List(ctx context.Context, page Page) ([]Record, error)
}

// Validatable is implemented by values that can check their own consistency.
// The Repository calls Validate before any write.
type Validatable interface {
	Validate() error
}

func encodeDocument[T any](doc Document[T]) (Record, error) {
	raw, err := json.Marshal(doc.Value)
	if err != nil {
		return Record{}, errors.Join(ErrEncodingDocumentFailed, err)
	}

	return Record{
		ID:         doc.ID,
		Version:    doc.Version,
		Document:   raw,
		CreatedAt:  doc.CreatedAt,
		ModifiedAt: doc.ModifiedAt,
	}, nil
}

func decodeDocument[T any](rec Record) (Document[T], error) {
	var value T
	if err := json.Unmarshal(rec.Document, &value); err != nil {
		return Document[T]{}, errors.Join(ErrDecodingDocumentFailed, err)
	}

	return Document[T]{
		ID:         rec.ID,
		Version:    rec.Version,
		Value:      value,
		CreatedAt:  rec.CreatedAt,
		ModifiedAt: rec.ModifiedAt,
	}, nil
}

func validate[T any](value T) error {
	var err error

	switch v := any(value).(type) {
	case Validatable:
		err = v.Validate()
	default:
		if pv, ok := any(&value).(Validatable); ok {
			err = pv.Validate()
		}
	}

	if err != nil {
		return errors.Join(ErrValidationFailed, err)
	}

	return nil
}
