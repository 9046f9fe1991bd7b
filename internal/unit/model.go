// Package unit provides the rentable unit model and its live repository.
package unit

import (
	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/live"
)

// Collection is the store collection holding units.
const Collection = "units"

// Unit is a rentable room or apartment. PropertyID is not enforced; a
// unit may outlive its property.
type Unit struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Name       string `json:"name"`
}

// Key returns the unit id.
func (u Unit) Key() string { return u.ID }

var table = live.Table[Unit]{
	SetID: func(u *Unit, id string) { u.ID = id },
	Fields: []live.Field[Unit]{
		{Name: "propertyId", Apply: func(u *Unit, v any) { u.PropertyID = docstore.AsString(v) }},
		{Name: "name", Apply: func(u *Unit, v any) { u.Name = docstore.AsString(v) }},
	},
}

// Codec lists units ordered by name across all properties.
var Codec = live.Codec[Unit]{
	Collection: Collection,
	OrderBy:    "name",
	Table:      table,
}

// Decode maps a raw document to a Unit, defaulting missing fields.
func Decode(doc docstore.Document) Unit {
	return table.Decode(doc)
}

// Input holds the writable fields of a unit.
type Input struct {
	PropertyID string
	Name       string
}

func (in Input) fields() map[string]any {
	return map[string]any{
		"propertyId": in.PropertyID,
		"name":       in.Name,
	}
}

// ForProperty returns the units that belong to propertyID, keeping order.
func ForProperty(units []Unit, propertyID string) []Unit {
	var out []Unit
	for _, u := range units {
		if u.PropertyID == propertyID {
			out = append(out, u)
		}
	}
	return out
}
