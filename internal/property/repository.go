package property

import (
	"context"

	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/live"
)

// Repository is the live property collection.
type Repository struct {
	*live.Repository[Property]
}

// NewRepository creates a property repository on the given store.
func NewRepository(store docstore.Store, opts ...live.Option) *Repository {
	return &Repository{Repository: live.NewRepository(store, Codec, opts...)}
}

// Create adds a property and returns its id.
func (r *Repository) Create(ctx context.Context, in Input) (string, error) {
	return r.CreateFields(ctx, in.fields())
}

// Update replaces the name and city of a property. Units and guests that
// point at it are not touched.
func (r *Repository) Update(ctx context.Context, id string, in Input) error {
	return r.UpdateFields(ctx, id, in.fields())
}
