package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/trc-platform/trc/entries/note"
	"github.com/trc-platform/trc/entries/reference"
	"github.com/trc-platform/trc/entries/relationship"
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/repository"
)

// guardReferences vetoes writes whose entry references do not resolve.
// Deleting a referenced entry is not prevented.
func (p *Platform) guardReferences() {
	p.Relationships.BeforeUpdate(func(ctx context.Context, event repository.UpdateEvent[relationship.Relationship]) error {
		if event.After == nil {
			return nil
		}

		return p.checkRefs(ctx, event.After.Value.Source, event.After.Value.Target)
	})

	p.Notes.BeforeUpdate(func(ctx context.Context, event repository.UpdateEvent[note.Note]) error {
		if event.After == nil {
			return nil
		}

		return p.checkRefs(ctx, event.After.Value.Entries...)
	})

	p.References.BeforeUpdate(func(ctx context.Context, event repository.UpdateEvent[reference.Reference]) error {
		if event.After == nil {
			return nil
		}

		refs := append([]entry.Ref{event.After.Value.Work}, event.After.Value.Associated...)

		return p.checkRefs(ctx, refs...)
	})
}

func (p *Platform) checkRefs(ctx context.Context, refs ...entry.Ref) error {
	for _, ref := range refs {
		if _, err := p.registry.Dereference(ctx, ref); err != nil {
			if errors.Is(err, repository.ErrDocumentNotFound) || errors.Is(err, entry.ErrNoResolver) {
				return fmt.Errorf("%w: %s", ErrDanglingReference, ref.EntryID())
			}

			return err
		}
	}

	return nil
}
