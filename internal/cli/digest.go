package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/guestbook/internal/config"
	"github.com/evcraddock/guestbook/internal/digest"
	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
	"github.com/evcraddock/guestbook/internal/view"
)

func newDigestCmd() *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print or mail today's summary",
		Long:  "Print today's summary, or mail it to GB_DIGEST_TO with --send using the GB_SMTP_* settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, send)
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "mail the digest instead of printing it")

	return cmd
}

func runDigest(cmd *cobra.Command, send bool) error {
	var cfg config.Config
	if send {
		var err error
		if cfg, err = config.FromEnv(); err != nil {
			return err
		}
		if !cfg.DigestEnabled() {
			return fmt.Errorf("digest mail not configured: set GB_SMTP_HOST and GB_DIGEST_TO")
		}
	}

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

	d := digestData(a.properties.Items(), a.units.Items(), a.guests.Items(), a.now())

	if send {
		if err := sendDigest(cfg, d); err != nil {
			return err
		}
		_, err := fmt.Fprintf(a.out, "✓ Digest sent to %d recipients.\n", len(cfg.DigestTo))
		return err
	}

	if isJSON() {
		return printJSON(a.out, map[string]string{"subject": digest.Subject(d), "body": digest.Format(d)})
	}
	_, err = fmt.Fprintf(a.out, "Subject: %s\n\n%s", digest.Subject(d), digest.Format(d))
	return err
}

func digestData(props []property.Property, units []unit.Unit, guests []guest.Guest, now time.Time) digest.Data {
	return digest.Data{
		Today:      view.BuildToday(props, units, guests, now),
		Properties: props,
		Units:      units,
	}
}

func sendDigest(cfg config.Config, d digest.Data) error {
	smtpCfg := digest.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}
	if err := digest.Send(smtpCfg, cfg.DigestTo, digest.Subject(d), digest.Format(d)); err != nil {
		return fmt.Errorf("sending digest: %w", err)
	}
	slog.Info("digest sent", "recipients", len(cfg.DigestTo))
	return nil
}
