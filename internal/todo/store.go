package todo

import "context"

// Store describes persistence for todos. Every operation takes the owner
// id and filters on it; a client-supplied todo id is never trusted alone.
// Update and Delete must be single owner-guarded statements so two
// concurrent requests cannot race between an existence check and a write.
type Store interface {
	Create(ctx context.Context, item *Todo) error
	Find(ctx context.Context, ownerID, id string) (*Todo, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Todo, error)
	Update(ctx context.Context, ownerID, id string, in UpdateInput) (*Todo, error)
	Delete(ctx context.Context, ownerID, id string) error
}
