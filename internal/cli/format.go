package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/evcraddock/guestbook/internal/digest"
	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
	"github.com/evcraddock/guestbook/internal/view"
)

const dateFormat = "Mon 2 Jan 2006"

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes rows under a header and a dashed separator.
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	sep := make([]string, len(header))
	for i, h := range header {
		sep[i] = strings.Repeat("-", len(h))
	}
	lines := append([][]string{header, sep}, rows...)

	for _, line := range lines {
		if _, err := fmt.Fprintln(tw, strings.Join(line, "\t")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// formatMoney formats an amount with thousands separators.
func formatMoney(f float64) string {
	return digest.Money(f)
}

// formatPrice is formatMoney for an optional price.
func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return formatMoney(*p)
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

// formatNights renders a night count, e.g. "1 night", "3 nights".
func formatNights(n int) string {
	if n == 1 {
		return "1 night"
	}
	return humanize.Comma(int64(n)) + " nights"
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func printPropertyTable(w io.Writer, props []property.Property, counts map[string]int) error {
	if len(props) == 0 {
		_, err := fmt.Fprintln(w, "No properties found.")
		return err
	}

	rows := make([][]string, 0, len(props))
	for _, p := range props {
		rows = append(rows, []string{p.ID, truncate(view.OrPlaceholder(p.Name), 40), view.OrPlaceholder(p.City), humanize.Comma(int64(counts[p.ID]))})
	}
	if err := table(w, []string{"ID", "NAME", "CITY", "UNITS"}, rows); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d properties\n", len(props))
	return err
}

func printUnitTable(w io.Writer, units []unit.Unit, props []property.Property) error {
	if len(units) == 0 {
		_, err := fmt.Fprintln(w, "No units found.")
		return err
	}

	rows := make([][]string, 0, len(units))
	for _, u := range units {
		rows = append(rows, []string{u.ID, view.OrPlaceholder(u.Name), view.PropertyName(props, u.PropertyID)})
	}
	if err := table(w, []string{"ID", "NAME", "PROPERTY"}, rows); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d units\n", len(units))
	return err
}

func printGuestTable(w io.Writer, guests []guest.Guest, props []property.Property, units []unit.Unit, loc *time.Location) error {
	rows := make([][]string, 0, len(guests))
	for _, g := range guests {
		rows = append(rows, []string{
			g.ID,
			truncate(view.OrPlaceholder(g.FullName), 30),
			formatDate(g.CheckIn.In(loc)),
			formatDate(g.CheckOut.In(loc)),
			view.PropertyName(props, g.PropertyID) + " / " + view.UnitName(units, g.UnitID),
			formatPrice(g.Price),
			string(g.PaymentStatus),
		})
	}
	return table(w, []string{"ID", "GUEST", "CHECK-IN", "CHECK-OUT", "PLACE", "PRICE", "PAYMENT"}, rows)
}

func printGuestDetail(w io.Writer, g guest.Guest, props []property.Property, units []unit.Unit, loc *time.Location) error {
	nights := view.NightsBetween(g.CheckIn, g.CheckOut)

	lines := []string{
		fmt.Sprintf("Guest %s", g.ID),
		fmt.Sprintf("  Name:      %s", view.OrPlaceholder(g.FullName)),
		fmt.Sprintf("  Phone:     %s", view.OrPlaceholder(g.Phone)),
		fmt.Sprintf("  Property:  %s", view.PropertyName(props, g.PropertyID)),
		fmt.Sprintf("  Unit:      %s", view.UnitName(units, g.UnitID)),
		fmt.Sprintf("  Check-in:  %s", formatDate(g.CheckIn.In(loc))),
		fmt.Sprintf("  Check-out: %s (%s)", formatDate(g.CheckOut.In(loc)), formatNights(nights)),
		fmt.Sprintf("  Source:    %s", g.Source),
		fmt.Sprintf("  Payment:   %s", g.PaymentStatus),
		fmt.Sprintf("  Price:     %s", formatPrice(g.Price)),
	}
	if g.HasIncome() {
		lines = append(lines, fmt.Sprintf("  Per night: %s", formatMoney(*g.Price/float64(nights))))
	}
	if g.Notes != "" {
		lines = append(lines, fmt.Sprintf("  Notes:     %s", g.Notes))
	}
	if !g.CreatedAt.Equal(time.UnixMilli(0)) {
		lines = append(lines, fmt.Sprintf("  Added:     %s", humanize.Time(g.CreatedAt)))
	}

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func printToday(w io.Writer, t view.Today, props []property.Property, units []unit.Unit) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", formatDate(t.Date))

	section := func(title string, guests []guest.Guest) {
		fmt.Fprintf(&b, "%s (%d)\n", title, len(guests))
		if len(guests) == 0 {
			b.WriteString("  none\n")
		}
		for _, g := range guests {
			fmt.Fprintf(&b, "  %s  %s / %s  until %s\n",
				view.OrPlaceholder(g.FullName),
				view.PropertyName(props, g.PropertyID),
				view.UnitName(units, g.UnitID),
				formatDate(g.CheckOut.In(t.Date.Location())),
			)
		}
		b.WriteString("\n")
	}

	section("Check-ins", t.CheckIns)
	section("Check-outs", t.CheckOuts)
	fmt.Fprintf(&b, "Occupied now: %d of %d units\n", len(t.Occupied), t.Units)
	for _, g := range t.Occupied {
		fmt.Fprintf(&b, "  %s  %s / %s\n", view.OrPlaceholder(g.FullName), view.PropertyName(props, g.PropertyID), view.UnitName(units, g.UnitID))
	}

	fmt.Fprintf(&b, "\nIncome today: %s\n", formatMoney(t.Income.Total))
	for _, e := range t.Income.Entries {
		fmt.Fprintf(&b, "  %s  %s/night (%s, %s)\n", view.OrPlaceholder(e.Guest.FullName), formatMoney(e.PerNight), formatMoney(*e.Guest.Price), formatNights(e.Nights))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
