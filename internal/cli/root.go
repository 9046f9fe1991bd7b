// Package cli defines the cobra command tree for guestbook.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/auth"
	"github.com/evcraddock/guestbook/internal/client"
	"github.com/evcraddock/guestbook/internal/command"
	"github.com/evcraddock/guestbook/internal/db"
	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/live"
	"github.com/evcraddock/guestbook/internal/logging"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
)

var (
	flagFormat   string
	flagDB       string
	flagPostgres string
	flagServer   string
)

// loadTimeout bounds how long a command waits for the first snapshots.
const loadTimeout = 15 * time.Second

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gb",
		Short: "Keep track of guesthouse bookings",
		Long: "A small booking manager for guesthouses: properties, their units and the guests staying in them, " +
			"with today's arrivals, departures, occupancy and income. Works on a local database or against a gb server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupTo(cmd.ErrOrStderr(), os.Getenv("GB_DEV_MODE") == "true")
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/gb/guestbook.db)")
	root.PersistentFlags().StringVar(&flagPostgres, "postgres", "", "Postgres DSN; overrides --db")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "use a gb server instead of a local database")

	root.AddCommand(
		newPropertiesCmd(),
		newUnitsCmd(),
		newGuestsCmd(),
		newTodayCmd(),
		newFinanceCmd(),
		newDigestCmd(),
		newKeysCmd(),
		newServeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the database named by --postgres, GB_POSTGRES_DSN, --db or
// the default SQLite path, in that order.
func openDB() (*sql.DB, db.Dialect, error) {
	dsn := flagPostgres
	if dsn == "" {
		dsn = os.Getenv("GB_POSTGRES_DSN")
	}
	if dsn != "" {
		database, err := db.OpenPostgres(dsn)
		return database, db.Postgres, err
	}

	path := flagDB
	if path == "" {
		path = os.Getenv("GB_DB")
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, "", err
		}
	}
	database, err := db.Open(path)
	return database, db.SQLite, err
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// location is the zone dates are read and shown in.
func location() (*time.Location, error) {
	tz := os.Getenv("GB_TIMEZONE")
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid GB_TIMEZONE: %w", err)
	}
	return loc, nil
}

// app is one command's view of the guestbook: a store, the three live
// repositories over it and the command service.
type app struct {
	session    live.Session
	properties *property.Repository
	units      *unit.Repository
	guests     *guest.Repository
	service    *command.Service
	manager    *live.Manager
	loc        *time.Location
	out        io.Writer

	remote   *client.Client
	database *sql.DB
	dialect  db.Dialect
}

// openApp connects to the server when one is configured and opens the
// local database otherwise.
func openApp(cmd *cobra.Command) (*app, error) {
	loc, err := location()
	if err != nil {
		return nil, err
	}

	a := &app{loc: loc, out: cmd.OutOrStdout()}

	var store docstore.Store
	if url := remoteURL(); url != "" {
		a.remote = client.New(url, getToken())
		a.session = a.remote
		store = a.remote
	} else {
		a.database, a.dialect, err = openDB()
		if err != nil {
			return nil, err
		}
		a.session = auth.LocalSession{}
		store = docstore.NewSQLStore(a.database, a.dialect)
	}

	a.properties = property.NewRepository(store)
	a.units = unit.NewRepository(store)
	a.guests = guest.NewRepository(store)
	a.service = command.NewService(a.properties, a.units, a.guests, loc)
	a.manager = live.NewManager(a.session, a.properties, a.units, a.guests)
	return a, nil
}

// ready establishes the session for commands that write without loading.
func (a *app) ready(ctx context.Context) error {
	return a.session.EnsureSessionReady(ctx)
}

// load subscribes every repository and waits for the first snapshots. The
// returned func stops the subscriptions.
func (a *app) load(ctx context.Context) (func(), error) {
	stop, err := a.manager.Start(ctx)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	if err := a.manager.WaitLoaded(waitCtx); err != nil {
		stop()
		return nil, fmt.Errorf("loading data: %w", err)
	}
	return stop, nil
}

func (a *app) close() {
	if a.database != nil {
		closeDB(a.database)
	}
}

func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}
