package unit

import (
	"context"

	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/live"
)

// Repository is the live unit collection.
type Repository struct {
	*live.Repository[Unit]
}

// NewRepository creates a unit repository on the given store.
func NewRepository(store docstore.Store, opts ...live.Option) *Repository {
	return &Repository{Repository: live.NewRepository(store, Codec, opts...)}
}

// Create adds a unit and returns its id.
func (r *Repository) Create(ctx context.Context, in Input) (string, error) {
	return r.CreateFields(ctx, in.fields())
}

// Update replaces the property and name of a unit.
func (r *Repository) Update(ctx context.Context, id string, in Input) error {
	return r.UpdateFields(ctx, id, in.fields())
}
