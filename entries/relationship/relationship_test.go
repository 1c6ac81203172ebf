package relationship_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trc-platform/trc/entries"
	. "github.com/trc-platform/trc/entries/relationship" //nolint:revive
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/repository/memstore"
)

var (
	cervantes = entry.RefTo(entry.NewID("person", "p-cervantes"))
	quixote   = entry.RefTo(entry.NewID("work", "w-quixote"))
)

func newRelationshipRepository(t *testing.T) *repository.Repository[Relationship, *Editor] {
	repo, err := repository.New[Relationship, *Editor](memstore.New(), NewEditor, repository.WithName(EntryType))
	require.NoError(t, err, "error in test setup")

	return repo
}

func Test_Editor_RelatesEntries(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := newRelationshipRepository(t)

	// arrange
	editor, err := repo.Create()
	require.NoError(t, err)
	require.NoError(t, editor.SetType("wrote"))
	require.NoError(t, editor.Relate(cervantes, quixote))
	created, err := editor.Execute(ctx)
	require.NoError(t, err)

	// act
	editor, err = repo.Edit(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, editor.SetTargetLabel("Don Quixote"))
	edited, err := editor.Execute(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Don Quixote", edited.Value.Target.Label)
	assert.Equal(t, quixote.EntryID(), edited.Value.Target.EntryID())
	assert.True(t, edited.Value.Involves(cervantes.EntryID()))

	indexed, err := Adapt(edited)
	require.NoError(t, err)
	assert.Equal(t, quixote.Token(), indexed["target_token"])
	assert.Equal(t, "Don Quixote", indexed["target_label"])
	assert.NotContains(t, indexed, "source_label")
}

func Test_Editor_When_EntryIsRelatedToItself(t *testing.T) {
	repo := newRelationshipRepository(t)

	editor, err := repo.Create()
	require.NoError(t, err)
	require.NoError(t, editor.SetType("cites"))
	require.NoError(t, editor.Relate(quixote, quixote))
	_, err = editor.Execute(context.Background())

	assert.ErrorIs(t, err, entries.ErrInvalidEntry)
}

func Test_Editor_When_TargetIsMissing(t *testing.T) {
	repo := newRelationshipRepository(t)

	editor, err := repo.Create()
	require.NoError(t, err)
	require.NoError(t, editor.SetType("wrote"))
	require.NoError(t, editor.SetSource(cervantes))
	_, err = editor.Execute(context.Background())

	assert.ErrorIs(t, err, entries.ErrInvalidEntry)
}
