// Package docstore defines the document store boundary the live repositories
// sync against, along with a SQL-backed implementation.
//
// Documents are schemaless maps keyed by (collection, id). A store offers
// ordered live queries that push the full result set on every change, plus
// point operations for create, partial update, delete and get.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a single stored document.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Query selects a whole collection in a stable order.
type Query struct {
	Collection string
	OrderBy    string
	Descending bool
}

// Unsubscribe stops a live query. It is safe to call more than once.
type Unsubscribe func()

// Store is a remote document store.
type Store interface {
	// Listen opens a live query. onSnapshot receives the full ordered result
	// set once initially and again after every change to the collection.
	// onError is called at most once, after which the listener is dead.
	Listen(q Query, onSnapshot func([]Document), onError func(error)) Unsubscribe

	// Create stores a new document and returns its generated id.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Update merges fields into an existing document. A nil value removes
	// the field. Returns an error wrapping ErrNotFound for unknown ids.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Get fetches a single document, or an error wrapping ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
}

type serverTimestamp struct{}

// MarshalJSON encodes the sentinel so that it survives the HTTP transport.
func (serverTimestamp) MarshalJSON() ([]byte, error) {
	return []byte(`{".sv":"timestamp"}`), nil
}

// ServerTimestamp is a field value the store replaces with its own clock
// (milliseconds since the Unix epoch) when the document is written.
var ServerTimestamp any = serverTimestamp{}

func isServerTimestamp(v any) bool {
	switch t := v.(type) {
	case serverTimestamp:
		return true
	case map[string]any:
		return len(t) == 1 && t[".sv"] == "timestamp"
	}
	return false
}

// resolveFields copies fields, replacing server timestamps with now.
func resolveFields(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if isServerTimestamp(v) {
			v = now.UnixMilli()
		}
		out[k] = v
	}
	return out
}

// merge applies a partial update to base in place. Nil values delete keys.
func merge(base, updates map[string]any) {
	for k, v := range updates {
		if v == nil {
			delete(base, k)
			continue
		}
		base[k] = v
	}
}
