package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-blogify/auth"
	"github.com/goliatone/go-blogify/config"
	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-blogify/notify"
	"github.com/goliatone/go-blogify/persistence"
	"github.com/goliatone/go-blogify/server"
	"github.com/spf13/cobra"
)

func newServeCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&f.port, "port", "p", "", "port to listen on")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg)

	db, err := persistence.Open(persistence.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Debug:        cfg.Database.Debug,
	}, logger.With("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := persistence.Ping(ctx, db); err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		applied, err := persistence.Migrate(ctx, db)
		if err != nil {
			return err
		}
		if len(applied) > 0 {
			logger.Info("applied migrations: %v", applied)
		}
	}

	srv, err := server.New(cfg, db, newNotifier(cfg, logger.With("notify")), logger.With("http"))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func newNotifier(cfg *config.Config, logger logging.Logger) auth.Notifier {
	var sender notify.Sender
	if cfg.Email.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not set, emails will only be logged")
		sender = notify.NewLogSender(logger)
	} else {
		sender = notify.NewResendSender(cfg.Email.ResendAPIKey, notify.WithFrom(cfg.Email.From))
	}

	return notify.NewMailer(sender, notify.Config{
		AppName:   cfg.Email.AppName,
		ClientURL: cfg.Server.ClientURL,
		ResetTTL:  cfg.Auth.ResetTTL,
	}, logger)
}
