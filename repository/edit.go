package repository

import "context"

// Mutator receives the original value and returns the modified one.
// It must not keep references to original after it returned.
type Mutator[T any] func(original T) (T, error)

// UpdateStrategy persists the result of a Mutator. It decides which original value the
// mutator sees (the zero value for creates, the freshest stored value for edits)
// and how the write is committed.
type UpdateStrategy[T any] interface {
	Update(ctx context.Context, mutate Mutator[T]) (Document[T], error)
}

// EditCommand is an edit prepared against a document that is committed by Execute.
type EditCommand[T any] interface {
	Execute(ctx context.Context) (Document[T], error)
}

// EditCommandFactory produces the edit command C for the document id.
// current is the stored value at the time the command is created, or nil for a new document.
type EditCommandFactory[T any, C any] func(id string, current *T, strategy UpdateStrategy[T]) C

// ChangeSetCommand is the base EditCommand of all entry kinds: it records changes in a
// ChangeSet and applies them through the UpdateStrategy on Execute.
//
// Entry-specific editors embed it and add typed setters.
type ChangeSetCommand[T any] struct {
	id       string
	current  *T
	strategy UpdateStrategy[T]
	changes  *ChangeSet
}

// NewChangeSetCommand is an EditCommandFactory for plain ChangeSetCommands.
func NewChangeSetCommand[T any](id string, current *T, strategy UpdateStrategy[T]) *ChangeSetCommand[T] {
	return &ChangeSetCommand[T]{
		id:       id,
		current:  current,
		strategy: strategy,
		changes:  NewChangeSet(),
	}
}

// ID returns the id of the document being edited.
func (c *ChangeSetCommand[T]) ID() string {
	return c.id
}

// IsNew reports whether the command creates a new document.
func (c *ChangeSetCommand[T]) IsNew() bool {
	return c.current == nil
}

// Current returns the value the command was created against.
func (c *ChangeSetCommand[T]) Current() (T, bool) {
	if c.current == nil {
		var zero T
		return zero, false
	}

	return *c.current, true
}

// ChangeSet returns the change set that Execute applies.
func (c *ChangeSetCommand[T]) ChangeSet() *ChangeSet {
	return c.changes
}

// Execute commits the recorded changes.
func (c *ChangeSetCommand[T]) Execute(ctx context.Context) (Document[T], error) {
	return c.strategy.Update(ctx, func(original T) (T, error) {
		return Apply(c.changes, original)
	})
}
