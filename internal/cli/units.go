package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/command"
	"github.com/evcraddock/guestbook/internal/unit"
)

func newUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "units",
		Aliases: []string{"unit"},
		Short:   "Manage the rooms and apartments of a property",
	}
	cmd.AddCommand(newUnitsListCmd(), newUnitsAddCmd(), newUnitsRemoveCmd())
	return cmd
}

func newUnitsListCmd() *cobra.Command {
	var propertyID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnitsList(cmd, propertyID)
		},
	}

	cmd.Flags().StringVar(&propertyID, "property", "", "only units of this property")

	return cmd
}

func runUnitsList(cmd *cobra.Command, propertyID string) error {
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

	units := a.units.Items()
	if propertyID != "" {
		units = unit.ForProperty(units, propertyID)
	}

	if isJSON() {
		if units == nil {
			units = []unit.Unit{}
		}
		return printJSON(a.out, units)
	}
	return printUnitTable(a.out, units, a.properties.Items())
}

func newUnitsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <property-id> <name>",
		Short: "Add a unit to a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.ready(cmd.Context()); err != nil {
				return err
			}
			id, err := a.service.AddUnit(cmd.Context(), command.UnitForm{PropertyID: args[0], Name: args[1]})
			if err != nil {
				return err
			}
			return printCreated(a, "Unit", id)
		},
	}
}

func newUnitsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a unit",
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
			if err := a.service.RemoveUnit(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printDone(a, "Unit", args[0], "removed")
		},
	}
}
