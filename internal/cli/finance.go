package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/view"
)

func newFinanceCmd() *cobra.Command {
	var (
		year       int
		month      int
		offset     int
		propertyID string
	)

	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Show income for a month",
		Long: "Sum the full price of every booking checking in during a month. " +
			"Defaults to the current month; --offset -1 steps back one month from whichever month is selected.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month < 0 || month > 12 {
				return fmt.Errorf("month must be 1-12")
			}
			return runFinance(cmd, year, time.Month(month), offset, propertyID)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	cmd.Flags().IntVar(&offset, "offset", 0, "months to move from the selected month")
	cmd.Flags().StringVar(&propertyID, "property", "", "only bookings of this property")

	return cmd
}

func runFinance(cmd *cobra.Command, year int, month time.Month, offset int, propertyID string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	now := a.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	year, month = view.ShiftMonth(year, month, offset)

	stop, err := a.load(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()

	inc := view.Monthly(a.guests.Items(), year, month, a.loc, propertyID)

	if isJSON() {
		return printJSON(a.out, inc)
	}

	props, units := a.properties.Items(), a.units.Items()
	title := fmt.Sprintf("%s %d", month, year)
	if propertyID != "" {
		title += " · " + view.PropertyName(props, propertyID)
	}
	fmt.Fprintf(a.out, "%s\n\n", title)

	if inc.Count == 0 {
		_, err := fmt.Fprintln(a.out, "No paid bookings this month.")
		return err
	}

	if err := printGuestTable(a.out, inc.Entries, props, units, a.loc); err != nil {
		return err
	}

	_, err = fmt.Fprintf(a.out, "\nTotal:    %s\nBookings: %d\nAverage:  %s\n",
		formatMoney(inc.Total), inc.Count, formatMoney(inc.Average))
	return err
}
