package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/auth"
	"github.com/evcraddock/guestbook/internal/client"
)

// keyStore is what the keys commands need, locally or over HTTP.
type keyStore interface {
	Create(ctx context.Context, name string) (string, *auth.APIKey, error)
	List(ctx context.Context) ([]auth.APIKey, error)
	Delete(ctx context.Context, id int64) error
}

type remoteKeys struct{ c *client.Client }

func (r remoteKeys) Create(ctx context.Context, name string) (string, *auth.APIKey, error) {
	return r.c.CreateKey(ctx, name)
}

func (r remoteKeys) List(ctx context.Context) ([]auth.APIKey, error) { return r.c.ListKeys(ctx) }

func (r remoteKeys) Delete(ctx context.Context, id int64) error { return r.c.DeleteKey(ctx, id) }

func (a *app) keys() keyStore {
	if a.remote != nil {
		return remoteKeys{a.remote}
	}
	return auth.NewAPIKeyStore(a.database, a.dialect)
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys for scripts and integrations",
	}
	cmd.AddCommand(newKeysCreateCmd(), newKeysListCmd(), newKeysRemoveCmd())
	return cmd
}

func newKeysCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create an API key; it is shown once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "API Key"
			if len(args) == 1 {
				name = args[0]
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			raw, key, err := a.keys().Create(cmd.Context(), name)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(a.out, map[string]any{"key": raw, "api_key": key})
			}
			_, err = fmt.Fprintf(a.out, "✓ Key %d (%s) created:\n\n  %s\n\nStore it now; it will not be shown again.\n", key.ID, key.Name, raw)
			return err
		},
	}
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			keys, err := a.keys().List(cmd.Context())
			if err != nil {
				return err
			}

			if isJSON() {
				if keys == nil {
					keys = []auth.APIKey{}
				}
				return printJSON(a.out, keys)
			}
			if len(keys) == 0 {
				_, err := fmt.Fprintln(a.out, "No API keys.")
				return err
			}

			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				lastUsed := "never"
				if k.LastUsedAt != nil {
					lastUsed = humanize.Time(*k.LastUsedAt)
				}
				rows = append(rows, []string{
					strconv.FormatInt(k.ID, 10),
					k.Name,
					k.KeyPrefix + "…",
					k.CreatedAt.Local().Format(time.DateTime),
					lastUsed,
				})
			}
			return table(a.out, []string{"ID", "NAME", "KEY", "CREATED", "LAST USED"}, rows)
		},
	}
}

func newKeysRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID %q", args[0])
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.keys().Delete(cmd.Context(), id); err != nil {
				return err
			}
			return printDone(a, "Key", args[0], "removed")
		},
	}
}
