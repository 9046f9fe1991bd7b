package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored server and session",
		Long:  "Removes the stored server and token from the config file; later commands use the local database again.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd)
		},
	}
}

func runLogout(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	out := cmd.OutOrStdout()
	if cfg.Token == "" && cfg.ServerURL == "" {
		_, err := fmt.Fprintln(out, "Not logged in.")
		return err
	}

	cfg.Token = ""
	cfg.ServerURL = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	_, err = fmt.Fprintln(out, "✓ Logged out.")
	return err
}
