package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/command"
	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/view"
)

func newGuestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "guests",
		Aliases: []string{"guest", "bookings"},
		Short:   "Manage guests and their bookings",
	}
	cmd.AddCommand(
		newGuestsListCmd(),
		newGuestsShowCmd(),
		newGuestsAddCmd(),
		newGuestsEditCmd(),
		newGuestsRemoveCmd(),
	)
	return cmd
}

func newGuestsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bookings, guests staying now first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGuestsList(cmd)
		},
	}
}

func runGuestsList(cmd *cobra.Command) error {
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

	staying, others := view.SplitOccupying(a.guests.Items(), a.now())
	if staying == nil {
		staying = []guest.Guest{}
	}
	if others == nil {
		others = []guest.Guest{}
	}

	if isJSON() {
		return printJSON(a.out, map[string][]guest.Guest{"staying": staying, "others": others})
	}

	if len(staying)+len(others) == 0 {
		_, err := fmt.Fprintln(a.out, "No bookings found.")
		return err
	}

	props, units := a.properties.Items(), a.units.Items()
	if len(staying) > 0 {
		fmt.Fprintf(a.out, "Staying now (%d)\n\n", len(staying))
		if err := printGuestTable(a.out, staying, props, units, a.loc); err != nil {
			return err
		}
		fmt.Fprintln(a.out)
	}
	if len(others) > 0 {
		fmt.Fprintf(a.out, "Other bookings (%d)\n\n", len(others))
		if err := printGuestTable(a.out, others, props, units, a.loc); err != nil {
			return err
		}
	}
	return nil
}

func newGuestsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGuestsShow(cmd, args[0])
		},
	}
}

func runGuestsShow(cmd *cobra.Command, id string) error {
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

	g, ok := a.guests.Find(id)
	if !ok {
		return fmt.Errorf("guest %s not found", id)
	}

	props, units := a.properties.Items(), a.units.Items()
	if isJSON() {
		return printJSON(a.out, map[string]any{
			"guest":    g,
			"property": view.PropertyName(props, g.PropertyID),
			"unit":     view.UnitName(units, g.UnitID),
			"nights":   view.NightsBetween(g.CheckIn, g.CheckOut),
		})
	}
	return printGuestDetail(a.out, g, props, units, a.loc)
}

// guestFlags are the booking form fields as command-line flags.
type guestFlags struct {
	name, phone, checkIn, checkOut string
	property, unit, source, notes  string
	payment, price                 string
}

func (f *guestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "guest's full name")
	fl.StringVar(&f.phone, "phone", "", "phone number")
	fl.StringVar(&f.checkIn, "check-in", "", "check-in date, YYYY-MM-DD (default today)")
	fl.StringVar(&f.checkOut, "check-out", "", "check-out date, YYYY-MM-DD (default tomorrow)")
	fl.StringVar(&f.property, "property", "", "property id")
	fl.StringVar(&f.unit, "unit", "", "unit id")
	fl.StringVar(&f.source, "source", "", "Booking, Airbnb or Direct (default Direct)")
	fl.StringVar(&f.notes, "notes", "", "free-form notes")
	fl.StringVar(&f.payment, "payment", "", "paid, partial or unpaid (default unpaid)")
	fl.StringVar(&f.price, "price", "", "total price for the stay; empty clears it")
}

// apply copies every flag the user set onto form.
func (f *guestFlags) apply(cmd *cobra.Command, form *command.GuestForm) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("name", &form.FullName, f.name)
	set("phone", &form.Phone, f.phone)
	set("check-in", &form.CheckIn, f.checkIn)
	set("check-out", &form.CheckOut, f.checkOut)
	set("property", &form.PropertyID, f.property)
	set("unit", &form.UnitID, f.unit)
	set("source", &form.Source, f.source)
	set("notes", &form.Notes, f.notes)
	set("payment", &form.PaymentStatus, f.payment)
	set("price", &form.Price, f.price)
}

func newGuestsAddCmd() *cobra.Command {
	var flags guestFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a booking",
		Example: "  gb guests add --name \"Ana Beridze\" --property <id> --unit <id> \\\n" +
			"    --check-in 2025-07-14 --check-out 2025-07-16 --source Airbnb --price 200",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.ready(cmd.Context()); err != nil {
				return err
			}

			form := command.NewGuestForm(a.now())
			flags.apply(cmd, &form)

			id, err := a.service.SaveGuest(cmd.Context(), "", form)
			if err != nil {
				return err
			}
			return printCreated(a, "Guest", id)
		},
	}

	flags.register(cmd)

	return cmd
}

func newGuestsEditCmd() *cobra.Command {
	var flags guestFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a booking",
		Long:  "Change a booking. Only the flags given are changed; --price \"\" removes the price.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.ready(cmd.Context()); err != nil {
				return err
			}

			form, err := a.service.LoadGuest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			flags.apply(cmd, &form)

			if _, err := a.service.SaveGuest(cmd.Context(), args[0], form); err != nil {
				return err
			}
			return printDone(a, "Guest", args[0], "updated")
		},
	}

	flags.register(cmd)

	return cmd
}

func newGuestsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.ready(cmd.Context()); err != nil {
				return err
			}
			if err := a.service.RemoveGuest(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printDone(a, "Guest", args[0], "removed")
		},
	}
}
