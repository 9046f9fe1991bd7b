package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/command"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/view"
)

func newPropertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "properties",
		Aliases: []string{"property"},
		Short:   "Manage properties",
	}
	cmd.AddCommand(
		newPropertiesListCmd(),
		newPropertiesShowCmd(),
		newPropertiesAddCmd(),
		newPropertiesEditCmd(),
		newPropertiesRemoveCmd(),
	)
	return cmd
}

func newPropertiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List properties with their unit counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropertiesList(cmd)
		},
	}
}

type propertyRow struct {
	property.Property
	Units int `json:"units"`
}

func runPropertiesList(cmd *cobra.Command) error {
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

	props := a.properties.Items()
	counts := view.UnitCounts(a.units.Items())

	if isJSON() {
		rows := make([]propertyRow, len(props))
		for i, p := range props {
			rows[i] = propertyRow{Property: p, Units: counts[p.ID]}
		}
		return printJSON(a.out, rows)
	}

	return printPropertyTable(a.out, props, counts)
}

func newPropertiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a property and who is staying in each unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropertiesShow(cmd, args[0])
		},
	}
}

func runPropertiesShow(cmd *cobra.Command, id string) error {
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

	p, ok := a.properties.Find(id)
	if !ok {
		return fmt.Errorf("property %s not found", id)
	}
	occupancy := view.PropertyOccupancy(a.units.Items(), a.guests.Items(), id, a.now())

	if isJSON() {
		return printJSON(a.out, map[string]any{"property": p, "units": occupancy})
	}

	fmt.Fprintf(a.out, "%s\n", view.OrPlaceholder(p.Name))
	fmt.Fprintf(a.out, "  City:  %s\n", view.OrPlaceholder(p.City))
	fmt.Fprintf(a.out, "  Units: %d\n\n", len(occupancy))

	if len(occupancy) == 0 {
		_, err := fmt.Fprintln(a.out, "No units.")
		return err
	}

	rows := make([][]string, 0, len(occupancy))
	for _, o := range occupancy {
		guestName, until := "free", ""
		if o.Guest != nil {
			guestName = view.OrPlaceholder(o.Guest.FullName)
			until = formatDate(o.Guest.CheckOut.In(a.loc))
		}
		rows = append(rows, []string{o.Unit.ID, view.OrPlaceholder(o.Unit.Name), guestName, until})
	}
	return table(a.out, []string{"ID", "UNIT", "GUEST", "UNTIL"}, rows)
}

func newPropertiesAddCmd() *cobra.Command {
	var city string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropertiesAdd(cmd, command.PropertyForm{Name: args[0], City: city})
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city the property is in")

	return cmd
}

func runPropertiesAdd(cmd *cobra.Command, form command.PropertyForm) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.ready(cmd.Context()); err != nil {
		return err
	}

	id, err := a.service.AddProperty(cmd.Context(), form)
	if err != nil {
		return err
	}

	return printCreated(a, "Property", id)
}

func newPropertiesEditCmd() *cobra.Command {
	var name, city string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename a property or change its city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropertiesEdit(cmd, args[0], name, city)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&city, "city", "", "new city")

	return cmd
}

func runPropertiesEdit(cmd *cobra.Command, id, name, city string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.ready(cmd.Context()); err != nil {
		return err
	}

	p, ok, err := a.properties.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("property %s not found", id)
	}

	form := command.PropertyForm{Name: p.Name, City: p.City}
	if cmd.Flags().Changed("name") {
		form.Name = name
	}
	if cmd.Flags().Changed("city") {
		form.City = city
	}

	if err := a.service.EditProperty(cmd.Context(), id, form); err != nil {
		return err
	}

	return printDone(a, "Property", id, "updated")
}

func newPropertiesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a property",
		Long:  "Remove a property. Its units and bookings are kept and show a placeholder where the property name was.",
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
			if err := a.service.RemoveProperty(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printDone(a, "Property", args[0], "removed")
		},
	}
}

// printCreated reports a new document id.
func printCreated(a *app, kind, id string) error {
	if isJSON() {
		return printJSON(a.out, map[string]string{"id": id})
	}
	_, err := fmt.Fprintf(a.out, "✓ %s %s added.\n", kind, id)
	return err
}

func printDone(a *app, kind, id, verb string) error {
	if isJSON() {
		return printJSON(a.out, map[string]string{"id": id, "status": verb})
	}
	_, err := fmt.Fprintf(a.out, "✓ %s %s %s.\n", kind, id, verb)
	return err
}
