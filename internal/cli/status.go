package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/db"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where data lives and check the session",
		Long:  "Shows the local database in use, or tests the connection to the server and checks the stored token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(w io.Writer) error {
	serverURL := remoteURL()
	if serverURL == "" {
		return localStatus(w)
	}

	token := getToken()
	fmt.Fprintf(w, "Server:  %s\n", serverURL)

	if token == "" {
		fmt.Fprintln(w, "Token:   not configured")
		fmt.Fprintln(w, "\nRun 'gb login' to start a session.")
		return nil
	}

	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fmt.Fprintf(w, "Token:   %s…\n", prefix)

	// Test the connection with a simple API request
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest("GET", strings.TrimRight(serverURL, "/")+"/api/docs/properties", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(w, "Status:  ✗ cannot reach server (%v)\n", err)
		return nil
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Fprintf(w, "warning: closing response body: %v\n", cerr)
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		fmt.Fprintln(w, "Status:  ✓ connected and authenticated")
	case http.StatusUnauthorized:
		fmt.Fprintln(w, "Status:  ✗ invalid or expired token")
		fmt.Fprintln(w, "\nRun 'gb login' to start a new session.")
	default:
		fmt.Fprintf(w, "Status:  ✗ unexpected response (%d)\n", resp.StatusCode)
	}

	return nil
}

func localStatus(w io.Writer) error {
	switch {
	case flagPostgres != "" || os.Getenv("GB_POSTGRES_DSN") != "":
		fmt.Fprintln(w, "Database: postgres")
	case flagDB != "":
		fmt.Fprintf(w, "Database: %s\n", flagDB)
	case os.Getenv("GB_DB") != "":
		fmt.Fprintf(w, "Database: %s\n", os.Getenv("GB_DB"))
	default:
		path, err := db.DefaultPath()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Database: %s\n", path)
	}
	fmt.Fprintln(w, "Server:   none (run 'gb login' to use one)")
	return nil
}
