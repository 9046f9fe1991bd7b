// Package digest formats and mails the daily activity summary.
package digest

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
	"github.com/evcraddock/guestbook/internal/view"
)

// Data is everything a digest needs.
type Data struct {
	Today      view.Today
	Properties []property.Property
	Units      []unit.Unit
}

// Subject returns the mail subject for a digest.
func Subject(d Data) string {
	return "Guestbook: " + d.Today.Date.Format("Mon 2 Jan 2006")
}

// Format builds a plain-text digest body.
func Format(d Data) string {
	var buf bytes.Buffer
	t := d.Today

	fmt.Fprintf(&buf, "Daily summary for %s\n\n", t.Date.Format("Monday, 2 January 2006"))

	fmt.Fprintf(&buf, "Check-ins (%d)\n", len(t.CheckIns))
	writeGuests(&buf, d, t.CheckIns, func(g guest.Guest) string { return "until " + shortDate(g.CheckOut) })

	fmt.Fprintf(&buf, "\nCheck-outs (%d)\n", len(t.CheckOuts))
	writeGuests(&buf, d, t.CheckOuts, func(g guest.Guest) string { return string(g.PaymentStatus) })

	fmt.Fprintf(&buf, "\nOccupied now: %d of %d units\n", len(t.Occupied), t.Units)
	writeGuests(&buf, d, t.Occupied, func(g guest.Guest) string { return "until " + shortDate(g.CheckOut) })

	fmt.Fprintf(&buf, "\nIncome today: %s\n", Money(t.Income.Total))
	for _, e := range t.Income.Entries {
		fmt.Fprintf(&buf, "   - %s: %s per night (%s over %d nights)\n",
			e.Guest.FullName, Money(e.PerNight), Money(*e.Guest.Price), e.Nights)
	}

	fmt.Fprintf(&buf, "\n%d properties, %d units, %d bookings on record.\n", t.Properties, t.Units, t.Guests)

	return buf.String()
}

func writeGuests(buf *bytes.Buffer, d Data, guests []guest.Guest, detail func(guest.Guest) string) {
	if len(guests) == 0 {
		fmt.Fprintf(buf, "   none\n")
		return
	}
	for _, g := range guests {
		fmt.Fprintf(buf, "   - %s, %s / %s, %s\n",
			view.OrPlaceholder(g.FullName),
			view.PropertyName(d.Properties, g.PropertyID),
			view.UnitName(d.Units, g.UnitID),
			detail(g),
		)
	}
}

// Money formats an amount with thousands separators and two decimals.
func Money(f float64) string {
	return humanize.FormatFloat("#,###.##", f)
}

func shortDate(t time.Time) string {
	return t.Format("2 Jan")
}
