// Package property provides the property model and its live repository.
package property

import (
	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/live"
)

// Collection is the store collection holding properties.
const Collection = "properties"

// Property is a guesthouse or building that contains units.
type Property struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// Key returns the property id.
func (p Property) Key() string { return p.ID }

var table = live.Table[Property]{
	SetID: func(p *Property, id string) { p.ID = id },
	Fields: []live.Field[Property]{
		{Name: "name", Apply: func(p *Property, v any) { p.Name = docstore.AsString(v) }},
		{Name: "city", Apply: func(p *Property, v any) { p.City = docstore.AsString(v) }},
	},
}

// Codec lists properties ordered by name.
var Codec = live.Codec[Property]{
	Collection: Collection,
	OrderBy:    "name",
	Table:      table,
}

// Decode maps a raw document to a Property, defaulting missing fields.
func Decode(doc docstore.Document) Property {
	return table.Decode(doc)
}

// Input holds the writable fields of a property.
type Input struct {
	Name string
	City string
}

func (in Input) fields() map[string]any {
	return map[string]any{
		"name": in.Name,
		"city": in.City,
	}
}
