package view

import (
	"time"

	"github.com/evcraddock/guestbook/internal/guest"
)

// IncomeEntry is one guest's share of today's income.
type IncomeEntry struct {
	Guest    guest.Guest `json:"guest"`
	Nights   int         `json:"nights"`
	PerNight float64     `json:"per_night"`
	Amount   float64     `json:"amount"`
}

// DailyIncome is the income attributed to a single day.
type DailyIncome struct {
	Total   float64       `json:"total"`
	Entries []IncomeEntry `json:"entries"`
}

// IncomeToday accrues one night's rate for every occupied guest with a
// positive price. Guests without one are left out entirely.
func IncomeToday(occupied []guest.Guest) DailyIncome {
	var inc DailyIncome
	for _, g := range occupied {
		if !g.HasIncome() {
			continue
		}
		nights := NightsBetween(g.CheckIn, g.CheckOut)
		perNight := *g.Price / float64(nights)
		inc.Entries = append(inc.Entries, IncomeEntry{
			Guest:    g,
			Nights:   nights,
			PerNight: perNight,
			Amount:   perNight,
		})
		inc.Total += perNight
	}
	return inc
}

// MonthlyIncome totals bookings that check in during one month.
type MonthlyIncome struct {
	Year       int           `json:"year"`
	Month      time.Month    `json:"month"`
	PropertyID string        `json:"property_id,omitempty"`
	Total      float64       `json:"total"`
	Count      int           `json:"count"`
	Average    float64       `json:"average"`
	Entries    []guest.Guest `json:"entries"`
}

// MonthRange returns the first and last instants of a month in loc,
// 00:00:00.000 on the first through 23:59:59.999 on the last day.
func MonthRange(year int, month time.Month, loc *time.Location) (first, last time.Time) {
	first = time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last = first.AddDate(0, 1, 0).Add(-time.Millisecond)
	return first, last
}

// Monthly sums the full price of every priced booking whose check-in
// falls inside the month. Stays crossing into the next month are not
// prorated. An empty propertyID matches every property.
func Monthly(guests []guest.Guest, year int, month time.Month, loc *time.Location, propertyID string) MonthlyIncome {
	first, last := MonthRange(year, month, loc)
	inc := MonthlyIncome{Year: year, Month: month, PropertyID: propertyID}

	for _, g := range guests {
		if !g.HasIncome() {
			continue
		}
		if g.CheckIn.Before(first) || g.CheckIn.After(last) {
			continue
		}
		if propertyID != "" && g.PropertyID != propertyID {
			continue
		}
		inc.Entries = append(inc.Entries, g)
		inc.Total += *g.Price
	}

	inc.Count = len(inc.Entries)
	if inc.Count > 0 {
		inc.Average = inc.Total / float64(inc.Count)
	}
	return inc
}

// ShiftMonth moves a year/month pair by delta months.
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
