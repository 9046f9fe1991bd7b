package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/auth"
	"github.com/evcraddock/guestbook/internal/client"
)

func newLoginCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session with a gb server",
		Long: "Signs in anonymously and stores the session token, so later commands work against the server. " +
			"With --key an operator API key is stored instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, key, cmd.Flags().Changed("key"))
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "store this API key instead of signing in anonymously")

	return cmd
}

func runLogin(cmd *cobra.Command, key string, useKey bool) error {
	serverURL := strings.TrimRight(getServerURL(), "/")

	var token string
	if useKey {
		key = strings.TrimSpace(key)
		if err := validateAPIKey(key); err != nil {
			return err
		}
		token = key
	} else {
		tok, err := client.New(serverURL, "").SignInAnonymously(cmd.Context())
		if err != nil {
			return err
		}
		token = tok.Token
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.ServerURL = serverURL
	cfg.Token = token

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in to %s.\n", serverURL)
	return err
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !auth.LooksLikeAPIKey(key) {
		return fmt.Errorf("invalid API key format (should start with gb_)")
	}
	return nil
}
