package view

import (
	"time"

	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
)

// Placeholder is shown for empty values and references that no longer
// resolve.
const Placeholder = "—"

// OrPlaceholder returns s, or Placeholder when s is empty.
func OrPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// PropertyName resolves a property id to its name.
func PropertyName(properties []property.Property, id string) string {
	for _, p := range properties {
		if p.ID == id {
			return p.Name
		}
	}
	return Placeholder
}

// UnitName resolves a unit id to its name.
func UnitName(units []unit.Unit, id string) string {
	for _, u := range units {
		if u.ID == id {
			return u.Name
		}
	}
	return Placeholder
}

// UnitCounts returns the number of units per property id.
func UnitCounts(units []unit.Unit) map[string]int {
	counts := make(map[string]int)
	for _, u := range units {
		counts[u.PropertyID]++
	}
	return counts
}

// UnitOccupancy pairs a unit with the guest staying in it, if any.
type UnitOccupancy struct {
	Unit  unit.Unit    `json:"unit"`
	Guest *guest.Guest `json:"guest,omitempty"`
}

// PropertyOccupancy lists the units of a property with their current
// guest. When several guests overlap on a unit the first in list order
// wins.
func PropertyOccupancy(units []unit.Unit, guests []guest.Guest, propertyID string, now time.Time) []UnitOccupancy {
	current := make(map[string]guest.Guest)
	for _, g := range guests {
		if g.PropertyID != propertyID || !occupies(g, now) {
			continue
		}
		if _, ok := current[g.UnitID]; !ok {
			current[g.UnitID] = g
		}
	}

	propertyUnits := unit.ForProperty(units, propertyID)
	out := make([]UnitOccupancy, 0, len(propertyUnits))
	for _, u := range propertyUnits {
		uo := UnitOccupancy{Unit: u}
		if g, ok := current[u.ID]; ok {
			uo.Guest = &g
		}
		out = append(out, uo)
	}
	return out
}
