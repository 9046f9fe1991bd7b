// Package live keeps local, read-only mirrors of remote document
// collections and coordinates their subscriptions.
package live

import "github.com/evcraddock/guestbook/internal/docstore"

// Entity is a decoded document with a store-assigned id.
type Entity interface {
	Key() string
}

// Field maps one document key onto an entity. Apply receives nil when the
// key is absent and must leave a sensible default in that case.
type Field[T any] struct {
	Name  string
	Apply func(entity *T, value any)
}

// Table is the complete decode mapping for an entity type.
type Table[T any] struct {
	SetID  func(entity *T, id string)
	Fields []Field[T]
}

// Decode builds an entity from a raw document. It never fails.
func (t Table[T]) Decode(doc docstore.Document) T {
	var entity T
	if t.SetID != nil {
		t.SetID(&entity, doc.ID)
	}
	for _, f := range t.Fields {
		f.Apply(&entity, doc.Fields[f.Name])
	}
	return entity
}

// Codec describes how a collection maps onto entity type T.
type Codec[T any] struct {
	Collection string
	OrderBy    string
	Descending bool
	Table      Table[T]
}

func (c Codec[T]) query() docstore.Query {
	return docstore.Query{
		Collection: c.Collection,
		OrderBy:    c.OrderBy,
		Descending: c.Descending,
	}
}
