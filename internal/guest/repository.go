package guest

import (
	"context"

	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/live"
)

// Repository is the live guest collection.
type Repository struct {
	*live.Repository[Guest]
}

// NewRepository creates a guest repository on the given store.
func NewRepository(store docstore.Store, opts ...live.Option) *Repository {
	return &Repository{Repository: live.NewRepository(store, Codec, opts...)}
}

// Create adds a booking. The store stamps createdAt.
func (r *Repository) Create(ctx context.Context, in Input) (string, error) {
	return r.CreateFields(ctx, in.fields())
}

// Update applies a partial update to a booking.
func (r *Repository) Update(ctx context.Context, id string, p Patch) error {
	return r.UpdateFields(ctx, id, p.fields())
}
