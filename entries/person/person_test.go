package person_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trc-platform/trc/entries"
	. "github.com/trc-platform/trc/entries/person" //nolint:revive
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/repository/memstore"
)

func newPersonRepository(t *testing.T) *repository.Repository[Person, *Editor] {
	repo, err := repository.New[Person, *Editor](memstore.New(), NewEditor, repository.WithName(EntryType))
	require.NoError(t, err, "error in test setup")

	return repo
}

func givenAustenWasCreated(t *testing.T, repo *repository.Repository[Person, *Editor]) repository.Document[Person] {
	editor, err := repo.Create()
	require.NoError(t, err)
	require.NoError(t, editor.SetName(entries.PersonName{GivenName: "Jane", FamilyName: "Austen"}))

	doc, err := editor.Execute(context.Background())
	require.NoError(t, err, "error in arranging test data")

	return doc
}

func Test_Editor_SetsLifeEvents(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := newPersonRepository(t)
	created := givenAustenWasCreated(t, repo)

	// act
	editor, err := repo.Edit(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, editor.SetBirth(entries.DateDescription{Value: "1775-12-16"}, "Steventon"))
	require.NoError(t, editor.SetDeath(entries.DateDescription{Value: "1817-07-18"}, "Winchester"))
	require.NoError(t, editor.AddEvent(Event{Type: "publication", Title: "Sense and Sensibility"}))
	require.NoError(t, editor.SetEventDescription(0, "published anonymously"))
	require.NoError(t, editor.AddAltName(entries.PersonName{DisplayName: "A Lady"}))
	edited, err := editor.Execute(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Steventon", edited.Value.Birth.Location)
	assert.Equal(t, "1775-12-16-1817-07-18", edited.Value.Lifespan())
	assert.Equal(t, "published anonymously", edited.Value.Events[0].Description)
	assert.Equal(t, "A Lady", edited.Value.AltNames[0].Display())
}

func Test_Editor_SetsNamePartsIndependently(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t)
	created := givenAustenWasCreated(t, repo)

	editor, err := repo.Edit(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, editor.SetGivenName("Cassandra"))
	edited, err := editor.Execute(ctx)

	require.NoError(t, err)
	assert.Equal(t, entries.PersonName{GivenName: "Cassandra", FamilyName: "Austen"}, edited.Value.Name)
}

func Test_Editor_When_NameIsMissing(t *testing.T) {
	repo := newPersonRepository(t)

	editor, err := repo.Create()
	require.NoError(t, err)
	require.NoError(t, editor.SetGivenName("Jane"))
	_, err = editor.Execute(context.Background())

	assert.ErrorIs(t, err, entries.ErrInvalidEntry)
}

func Test_Adapt(t *testing.T) {
	doc := givenAustenWasCreated(t, newPersonRepository(t))

	indexed, err := Adapt(doc)

	require.NoError(t, err)
	assert.Equal(t, "Jane Austen", indexed["name"])
	assert.Equal(t, "Austen, Jane", indexed["name_sort"])
	assert.NotContains(t, indexed, "lifespan")
}
