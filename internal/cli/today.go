package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/view"
)

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's check-ins, check-outs, occupancy and income",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			stop, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()

			props, units := a.properties.Items(), a.units.Items()
			today := view.BuildToday(props, units, a.guests.Items(), a.now())

			if isJSON() {
				return printJSON(a.out, today)
			}
			return printToday(a.out, today, props, units)
		},
	}
}
