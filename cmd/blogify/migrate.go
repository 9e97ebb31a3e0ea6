package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-blogify/config"
	"github.com/goliatone/go-blogify/persistence"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

func newMigrateCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, f, func(ctx context.Context, db *bun.DB) error {
				applied, err := persistence.Migrate(ctx, db)
				if err != nil {
					return err
				}
				return report(cmd, "applied", applied)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the last migration group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, f, func(ctx context.Context, db *bun.DB) error {
				rolled, err := persistence.Rollback(ctx, db)
				if err != nil {
					return err
				}
				return report(cmd, "rolled back", rolled)
			})
		},
	})

	return cmd
}

func withDB(cmd *cobra.Command, f *flags, fn func(context.Context, *bun.DB) error) error {
	cfg, err := f.load(cmd)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, db)
}

func openDB(cfg *config.Config) (*bun.DB, error) {
	return persistence.Open(persistence.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Debug:        cfg.Database.Debug,
	}, newLogger(cfg).With("db"))
}

func report(cmd *cobra.Command, verb string, names []string) error {
	if len(names) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "nothing to do")
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, name); err != nil {
			return err
		}
	}
	return nil
}
