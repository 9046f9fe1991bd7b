// Package view derives occupancy and income views from the current
// property, unit and guest lists. Every function is pure: it reads its
// arguments, never mutates them, and does no I/O.
package view

import (
	"math"
	"time"

	"github.com/evcraddock/guestbook/internal/guest"
)

// OccupiedNow returns the guests staying at now. Both ends are inclusive:
// a guest checking out exactly at now still occupies the unit.
func OccupiedNow(guests []guest.Guest, now time.Time) []guest.Guest {
	var out []guest.Guest
	for _, g := range guests {
		if occupies(g, now) {
			out = append(out, g)
		}
	}
	return out
}

func occupies(g guest.Guest, now time.Time) bool {
	return !g.CheckIn.After(now) && !g.CheckOut.Before(now)
}

// CheckInsOnDay returns the guests whose check-in falls on day's calendar
// date, in day's location.
func CheckInsOnDay(guests []guest.Guest, day time.Time) []guest.Guest {
	var out []guest.Guest
	for _, g := range guests {
		if SameDay(g.CheckIn, day) {
			out = append(out, g)
		}
	}
	return out
}

// CheckOutsOnDay returns the guests whose check-out falls on day's
// calendar date, in day's location.
func CheckOutsOnDay(guests []guest.Guest, day time.Time) []guest.Guest {
	var out []guest.Guest
	for _, g := range guests {
		if SameDay(g.CheckOut, day) {
			out = append(out, g)
		}
	}
	return out
}

// SameDay reports whether t and day share a calendar date in day's
// location.
func SameDay(t, day time.Time) bool {
	t = t.In(day.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// StartOfDay returns local midnight of t's date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NightsBetween counts whole nights, rounded, never less than one.
func NightsBetween(checkIn, checkOut time.Time) int {
	nights := int(math.Round(float64(checkOut.Sub(checkIn)) / float64(24*time.Hour)))
	return max(1, nights)
}

// SplitOccupying partitions guests into those staying at now and the rest,
// keeping the input order in both.
func SplitOccupying(guests []guest.Guest, now time.Time) (staying, others []guest.Guest) {
	for _, g := range guests {
		if occupies(g, now) {
			staying = append(staying, g)
		} else {
			others = append(others, g)
		}
	}
	return staying, others
}
