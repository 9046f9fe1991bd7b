package view

import (
	"time"

	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
)

// Today is the daily dashboard.
type Today struct {
	Date       time.Time     `json:"date"`
	CheckIns   []guest.Guest `json:"check_ins"`
	CheckOuts  []guest.Guest `json:"check_outs"`
	Occupied   []guest.Guest `json:"occupied"`
	Income     DailyIncome   `json:"income"`
	Properties int           `json:"properties"`
	Units      int           `json:"units"`
	Guests     int           `json:"guests"`
}

// BuildToday assembles the dashboard for now. Check-ins and check-outs
// use now's calendar date; occupancy and income use the instant itself.
func BuildToday(properties []property.Property, units []unit.Unit, guests []guest.Guest, now time.Time) Today {
	day := StartOfDay(now)
	occupied := OccupiedNow(guests, now)
	return Today{
		Date:       day,
		CheckIns:   CheckInsOnDay(guests, day),
		CheckOuts:  CheckOutsOnDay(guests, day),
		Occupied:   occupied,
		Income:     IncomeToday(occupied),
		Properties: len(properties),
		Units:      len(units),
		Guests:     len(guests),
	}
}
