package cli

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/guestbook/internal/auth"
	"github.com/evcraddock/guestbook/internal/config"
	"github.com/evcraddock/guestbook/internal/db"
	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/live"
	"github.com/evcraddock/guestbook/internal/logging"
	"github.com/evcraddock/guestbook/internal/metrics"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
	"github.com/evcraddock/guestbook/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the guestbook API server",
		Long: "Serve the document store and dashboard views over HTTP, keeping a live session of its own. " +
			"Configured with GB_* environment variables; mails the daily digest when GB_SMTP_HOST and GB_DIGEST_TO are set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides GB_PORT)")

	return cmd
}

// openServerDB applies the global flags over the server's environment.
func openServerDB(cfg config.Config) (*sql.DB, db.Dialect, error) {
	if flagPostgres == "" && flagDB == "" {
		if cfg.PostgresDSN != "" {
			database, err := db.OpenPostgres(cfg.PostgresDSN)
			return database, db.Postgres, err
		}
		if cfg.DBPath != "" {
			database, err := db.Open(cfg.DBPath)
			return database, db.SQLite, err
		}
	}
	return openDB()
}

func jwtSecret(cfg config.Config) ([]byte, error) {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating token secret: %w", err)
	}
	slog.Warn("GB_JWT_SECRET not set; sessions will not survive a restart")
	return secret, nil
}

func runServe(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.DevMode)

	database, dialect, err := openServerDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	secret, err := jwtSecret(cfg)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenIssuer(secret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	store := docstore.NewSQLStore(database, dialect)
	rec := metrics.New()
	props := property.NewRepository(store, live.WithObserver(rec))
	units := unit.NewRepository(store, live.WithObserver(rec))
	guests := guest.NewRepository(store, live.WithObserver(rec))

	stopSubs, err := live.NewManager(auth.LocalSession{}, props, units, guests).Start(ctx)
	if err != nil {
		return err
	}
	defer stopSubs()

	srv, err := web.NewServer(web.Config{
		Store:       store,
		Tokens:      tokens,
		APIKeys:     auth.NewAPIKeyStore(database, dialect),
		Properties:  props,
		Units:       units,
		Guests:      guests,
		Metrics:     rec,
		Location:    cfg.Location,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Port) })

	if cfg.DigestEnabled() {
		c, err := scheduleDigest(cfg, props, units, guests)
		if err != nil {
			return err
		}
		c.Start()
		slog.Info("digest scheduled", "schedule", cfg.DigestSchedule, "recipients", len(cfg.DigestTo))
		g.Go(func() error {
			<-gctx.Done()
			<-c.Stop().Done()
			return nil
		})
	}

	return g.Wait()
}

// scheduleDigest mails the daily digest on cfg.DigestSchedule, read in
// the server's time zone.
func scheduleDigest(cfg config.Config, props *property.Repository, units *unit.Repository, guests *guest.Repository) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(cfg.Location))

	_, err := c.AddFunc(cfg.DigestSchedule, func() {
		for _, r := range []live.Subscriber{props, units, guests} {
			if r.Loading() || r.Err() != "" {
				slog.Warn("skipping digest, data not available", "collection", r.Collection(), "error", r.Err())
				return
			}
		}
		d := digestData(props.Items(), units.Items(), guests.Items(), time.Now().In(cfg.Location))
		if err := sendDigest(cfg, d); err != nil {
			slog.Error("digest failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid GB_DIGEST_SCHEDULE %q: %w", cfg.DigestSchedule, err)
	}
	return c, nil
}
