package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/evcraddock/guestbook/internal/docstore"
)

// State is a consistent read of a repository.
type State[T any] struct {
	Items   []T
	Loading bool
	Err     string
}

// Change is sent to watchers whenever a repository's state moves.
type Change struct {
	Collection string
	Count      int
	Loading    bool
	Err        string
}

// Observer receives repository events, e.g. for metrics.
type Observer interface {
	SnapshotApplied(collection string, count int)
	SubscriptionFailed(collection string)
	CommandFinished(collection, op string, err error)
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

const watchBuffer = 16

// Repository mirrors one collection. The cached list is replaced wholesale
// by each snapshot the store pushes; it is never patched in place.
type Repository[T Entity] struct {
	store    docstore.Store
	codec    Codec[T]
	observer Observer

	mu       sync.RWMutex
	items    []T
	loading  bool
	err      string
	gen      uint64
	watchers map[chan Change]struct{}
}

// NewRepository creates a repository in the loading state.
func NewRepository[T Entity](store docstore.Store, codec Codec[T], opts ...Option) *Repository[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		store:    store,
		codec:    codec,
		observer: o.observer,
		loading:  true,
		watchers: make(map[chan Change]struct{}),
	}
}

// Collection returns the collection name.
func (r *Repository[T]) Collection() string { return r.codec.Collection }

// Decode maps a raw document with this repository's table.
func (r *Repository[T]) Decode(doc docstore.Document) T {
	return r.codec.Table.Decode(doc)
}

// Subscribe resets the cache and opens the live query. Snapshots from a
// handle that has since been unsubscribed, or superseded by a newer
// Subscribe, are dropped.
func (r *Repository[T]) Subscribe() docstore.Unsubscribe {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.items = nil
	r.loading = true
	r.err = ""
	r.mu.Unlock()
	r.notify()

	stop := r.store.Listen(r.codec.query(),
		func(docs []docstore.Document) { r.apply(gen, docs) },
		func(err error) { r.fail(gen, err) },
	)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			if r.gen == gen {
				r.gen++
			}
			r.mu.Unlock()
			stop()
		})
	}
}

func (r *Repository[T]) apply(gen uint64, docs []docstore.Document) {
	items := make([]T, 0, len(docs))
	for _, d := range docs {
		items = append(items, r.codec.Table.Decode(d))
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return
	}
	r.items = items
	r.loading = false
	r.err = ""
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.SnapshotApplied(r.codec.Collection, len(items))
	}
	r.notify()
}

func (r *Repository[T]) fail(gen uint64, err error) {
	msg := err.Error()
	if msg == "" {
		msg = "failed to load " + r.codec.Collection
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return
	}
	r.loading = false
	r.err = msg
	r.mu.Unlock()

	slog.Error("subscription error", "collection", r.codec.Collection, "error", err)
	if r.observer != nil {
		r.observer.SubscriptionFailed(r.codec.Collection)
	}
	r.notify()
}

// Reset returns the cache to its initial loading state.
func (r *Repository[T]) Reset() {
	r.mu.Lock()
	r.items = nil
	r.loading = true
	r.err = ""
	r.mu.Unlock()
	r.notify()
}

// State returns a copy of the current state.
func (r *Repository[T]) State() State[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return State[T]{
		Items:   append([]T(nil), r.items...),
		Loading: r.loading,
		Err:     r.err,
	}
}

// Items returns a copy of the cached list.
func (r *Repository[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), r.items...)
}

// Loading reports whether the first snapshot is still outstanding.
func (r *Repository[T]) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Err returns the last subscription error message, or "".
func (r *Repository[T]) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Find looks up an entity in the cache.
func (r *Repository[T]) Find(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.Key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Watch registers for change notifications. Sends never block: a watcher
// that falls behind misses events and should re-read State. The returned
// func unregisters and closes the channel.
func (r *Repository[T]) Watch() (<-chan Change, func()) {
	ch := make(chan Change, watchBuffer)

	r.mu.Lock()
	r.watchers[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.watchers, ch)
			r.mu.Unlock()
			close(ch)
		})
	}
}

func (r *Repository[T]) notify() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	change := Change{
		Collection: r.codec.Collection,
		Count:      len(r.items),
		Loading:    r.loading,
		Err:        r.err,
	}
	for ch := range r.watchers {
		select {
		case ch <- change:
		default:
		}
	}
}

// CreateFields submits a new document and returns its id.
func (r *Repository[T]) CreateFields(ctx context.Context, fields map[string]any) (string, error) {
	id, err := r.store.Create(ctx, r.codec.Collection, fields)
	if err = r.finish("create", "", err); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateFields submits a partial update.
func (r *Repository[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	err := r.store.Update(ctx, r.codec.Collection, id, fields)
	return r.finish("update", id, err)
}

// Delete removes a document. Documents referring to it are left alone.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, r.codec.Collection, id)
	return r.finish("delete", id, err)
}

// GetByID fetches an entity from the store, bypassing the cache.
// A missing document is reported as ok == false, not as an error.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var zero T

	doc, err := r.store.Get(ctx, r.codec.Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		r.finish("get", id, nil)
		return zero, false, nil
	}
	if err = r.finish("get", id, err); err != nil {
		return zero, false, err
	}
	return r.codec.Table.Decode(doc), true, nil
}

func (r *Repository[T]) finish(op, id string, err error) error {
	if r.observer != nil {
		r.observer.CommandFinished(r.codec.Collection, op, err)
	}
	if err == nil {
		return nil
	}
	slog.Warn("command failed", "collection", r.codec.Collection, "op", op, "id", id, "error", err)
	return &CommandError{Op: op, Collection: r.codec.Collection, ID: id, Err: err}
}
