package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply registry database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.migrate(cmd.Context())
		},
	}
}

func (a *app) migrate(ctx context.Context) error {
	db, err := a.connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	return a.migrations().Migrate(a.cfg.DatabaseName, db)
}
